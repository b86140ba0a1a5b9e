package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SetLinkHeaders adds RFC 8288 Link headers for page-numbered responses.
// Every other query parameter of the request is preserved.
func SetLinkHeaders(c *fiber.Ctx, page, pageSize, total int) {
	if pageSize <= 0 {
		return
	}
	last := (total + pageSize - 1) / pageSize
	if last < 1 {
		last = 1
	}

	base := c.Path()
	q, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
	link := func(p int, rel string) string {
		q.Set("page", strconv.Itoa(p))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, base, q.Encode(), rel)
	}

	links := []string{link(1, "first")}
	if page > 1 {
		prev := page - 1
		if prev > last {
			prev = last
		}
		links = append(links, link(prev, "prev"))
	}
	if page < last {
		links = append(links, link(page+1, "next"))
	}
	links = append(links, link(last, "last"))

	c.Set("Link", strings.Join(links, ", "))
}
