package http

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/diadiem/api"
)

const openAPIPath = "/docs/openapi.yaml"

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="vi">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: {{.SpecURL}}, dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`))

func renderDocsPage(title string) []byte {
	var buf bytes.Buffer
	data := struct{ Title, SpecURL string }{title, openAPIPath}
	if err := docsPage.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SetupDocs serves the embedded OpenAPI document and a Swagger UI page
// reading it. Both are rendered once.
func SetupDocs(app *fiber.App) {
	page := renderDocsPage("Diadiem Directory API")

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(page)
	})
	app.Get(openAPIPath, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml; charset=utf-8")
		return c.Send(api.OpenAPI)
	})
}
