package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// Fixtures returns a small directory of Vietnamese businesses relative to now.
func Fixtures(now time.Time) []domain.BusinessSummary {
	day := 24 * time.Hour
	started := now.Add(-day)
	ends := now.Add(30 * day)
	later := now.Add(7 * day)
	joined := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	return []domain.BusinessSummary{
		{
			Name: "Spa Hoa Sen", Address: "12 Lê Lợi", Categories: []string{"spa", "massage"},
			City: "Hồ Chí Minh", District: "Quận 1", Location: &domain.GeoPoint{Lat: 10.7769, Lon: 106.7009},
			Rating: 4.5, ReviewCount: 32, Verified: true, Featured: true,
			OpeningHours: domain.OpeningHours{"Thứ 2 - Thứ 6": "09:00 - 21:00", "Thứ 7 - Chủ nhật": "10:00 - 22:00"},
			Deals:        []domain.Deal{
				{Title: "Giảm 20% liệu trình đầu tiên", Status: domain.DealActive, StartsAt: &started, EndsAt: &ends},
			},
			JoinedAt: joined(2023, time.March, 1),
		},
		{
			Name: "Massage Bến Thành", Address: "45 Phạm Ngũ Lão", Categories: []string{"massage"},
			City: "Hồ Chí Minh", District: "Quận 1", Location: &domain.GeoPoint{Lat: 10.7720, Lon: 106.6983},
			Rating: 3.0, ReviewCount: 8,
			OpeningHours: domain.OpeningHours{"Hàng ngày": "08:00 - 23:00"},
			Deals:        []domain.Deal{
				{Title: "Tặng 15 phút massage chân", Status: domain.DealScheduled, StartsAt: &later},
			},
			JoinedAt: joined(2024, time.January, 15),
		},
		{
			Name: "Phở Thìn", Address: "13 Lò Đúc", Categories: []string{"restaurant", "pho"},
			City: "Hà Nội", District: "Hai Bà Trưng", Location: &domain.GeoPoint{Lat: 21.0163, Lon: 105.8557},
			Rating: 4.2, ReviewCount: 120, Verified: true,
			OpeningHours: domain.OpeningHours{"Hàng ngày": "06:00 - 14:00"},
			JoinedAt:     joined(2022, time.June, 10),
		},
		{
			Name: "Cà phê Giảng", Address: "39 Nguyễn Hữu Huân", Categories: []string{"cafe"},
			City: "Hà Nội", District: "Hoàn Kiếm", Location: &domain.GeoPoint{Lat: 21.0340, Lon: 105.8545},
			Rating: 4.7, ReviewCount: 250, Verified: true, Featured: true,
			OpeningHours: domain.OpeningHours{"Hàng ngày": "07:00 - 22:00"},
			JoinedAt:     joined(2021, time.November, 20),
		},
		{
			Name: "Tiệm sửa xe Minh", Address: "8 Võ Văn Tần", Categories: []string{"repair"},
			City: "Hồ Chí Minh", District: "Quận 3",
			JoinedAt: joined(2024, time.May, 2),
		},
		{
			Name: "Bánh mì Huỳnh Hoa", Address: "26 Lê Thị Riêng", Categories: []string{"restaurant", "banh-mi"},
			City: "Hồ Chí Minh", District: "Quận 1", Location: &domain.GeoPoint{Lat: 10.7713, Lon: 106.6925},
			Rating: 4.4, ReviewCount: 540,
			OpeningHours: domain.OpeningHours{"Hàng ngày": "14:30 - 23:00"},
			JoinedAt:     joined(2020, time.August, 8),
		},
	}
}

// Seed inserts Fixtures into an empty database. A database that already has
// businesses is left alone.
func Seed(ctx context.Context, db *DB) error {
	var n int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	repo := NewBusinessRepo(db)
	for _, b := range Fixtures(time.Now()) {
		b := b
		if err := repo.Insert(ctx, &b); err != nil {
			return fmt.Errorf("seed %s: %w", b.Name, err)
		}
	}
	return nil
}
