package util

import "testing"

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("你好 {{.Name}}，现在是 {{.Time}}", map[string]any{
		"Name": "小明",
		"Time": "12:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "你好 小明，现在是 12:00" {
		t.Errorf("got %q", out)
	}
}

func TestRenderTemplateNoMarkers(t *testing.T) {
	out, err := RenderTemplate("纯文本，原样返回", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "纯文本，原样返回" {
		t.Errorf("got %q", out)
	}
}

func TestRenderTemplateMissingKeyDoesNotFail(t *testing.T) {
	if _, err := RenderTemplate("value: {{.Missing}}", map[string]any{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRenderTemplateParseError(t *testing.T) {
	if _, err := RenderTemplate("broken {{.", nil); err == nil {
		t.Error("expected a parse error")
	}
}
