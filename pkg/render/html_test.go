package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goliatone/go-predictform/pkg/model"
)

func scoresResult(t *testing.T) model.PredictionResult {
	t.Helper()
	var result model.PredictionResult
	raw := `{"NU_NOTA_MT":650.5,"NU_NOTA_CN":512.25,"NU_NOTA_LC":"580","NU_NOTA_CH":601.1,"NU_NOTA_REDACAO":720}`
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return result
}

func newHTML(t *testing.T, options ...Option) *HTMLRenderer {
	t.Helper()
	renderer, err := NewHTML(options...)
	if err != nil {
		t.Fatalf("new html renderer: %v", err)
	}
	return renderer
}

func TestHTMLRenderer_Loading(t *testing.T) {
	renderer := newHTML(t)

	out, err := renderer.Render(context.Background(), LoadingView(""))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "<p>Calculando previsão...</p>" {
		t.Fatalf("unexpected loading fragment %q", got)
	}
}

func TestHTMLRenderer_SuccessRendersSubjectsInOrder(t *testing.T) {
	renderer := newHTML(t)

	out, err := renderer.Render(context.Background(), View{Phase: PhaseSuccess, Result: scoresResult(t)})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	expected := []string{
		"<h3>Notas Previstas:</h3>",
		"<p>Matemática (MT): 650.5</p>",
		"<p>Ciências da Natureza (CN): 512.25</p>",
		"<p>Linguagens e Códigos (LC): 580</p>",
		"<p>Ciências Humanas (CH): 601.1</p>",
		"<p>Redação: 720</p>",
	}
	last := -1
	for _, want := range expected {
		idx := strings.Index(html, want)
		if idx < 0 {
			t.Fatalf("missing %q in %q", want, html)
		}
		if idx < last {
			t.Fatalf("%q rendered out of order", want)
		}
		last = idx
	}
}

func TestHTMLRenderer_SuccessWithMissingKeysRendersEmptyValues(t *testing.T) {
	renderer := newHTML(t)

	out, err := renderer.Render(context.Background(), View{Phase: PhaseSuccess, Result: model.PredictionResult{}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "<p>Redação: </p>") {
		t.Fatalf("expected empty essay value, got %q", out)
	}
}

func TestHTMLRenderer_Errors(t *testing.T) {
	renderer := newHTML(t)

	cases := []struct {
		name string
		view View
		want string
	}{
		{
			name: "server message",
			view: View{Phase: PhaseFailure, Message: "missing field Q006"},
			want: `<p class="error">Erro na previsão: missing field Q006</p>`,
		},
		{
			name: "fallback",
			view: View{Phase: PhaseFailure},
			want: `<p class="error">Erro na previsão: Ocorreu um erro desconhecido.</p>`,
		},
		{
			name: "connectivity",
			view: View{Phase: PhaseConnectivity},
			want: `<p class="error">Erro ao conectar com o servidor de previsão. Verifique sua conexão ou tente mais tarde.</p>`,
		},
		{
			name: "malformed",
			view: View{Phase: PhaseMalformed},
			want: `<p class="error">Resposta inválida do servidor de previsão.</p>`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := renderer.Render(context.Background(), tc.view)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got := strings.TrimSpace(string(out)); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHTMLRenderer_EscapesServerMessage(t *testing.T) {
	renderer := newHTML(t)

	out, err := renderer.Render(context.Background(), View{Phase: PhaseFailure, Message: "<script>x</script>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Fatalf("server message was not escaped: %q", out)
	}
}

func TestHTMLRenderer_EnglishLocale(t *testing.T) {
	renderer := newHTML(t)

	out, err := renderer.Render(context.Background(), View{Phase: PhaseSuccess, Locale: "en", Result: scoresResult(t)})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "<p>Mathematics (MT): 650.5</p>") {
		t.Fatalf("expected english labels, got %q", out)
	}
}

func TestHTMLRenderer_RenderPage(t *testing.T) {
	themes, err := NewThemeSet()
	if err != nil {
		t.Fatalf("theme set: %v", err)
	}
	renderer := newHTML(t,
		WithThemes(themes, "", "dark"),
		WithIntro(`<p onclick="x()">Bem-vindo</p><script>alert(1)</script>`),
	)

	form := model.FormModel{
		Title: "Previsão",
		Fields: []model.Field{
			{
				Name:     "Q006",
				Label:    "Renda familiar",
				Required: true,
				Options: []model.Option{
					{Value: "A", Label: "Nenhuma renda"},
					{Value: "B", Label: "Até R$ 1.320,00"},
				},
			},
			{Name: "SG_UF_PROVA", Label: "UF"},
		},
	}

	out, err := renderer.RenderPage(context.Background(), PageView{
		Locale:  "pt-BR",
		Form:    form,
		Values:  model.NewFormInput("Q006", "B", "SG_UF_PROVA", "SP"),
		Results: []byte("<p>Calculando previsão...</p>"),
	})
	if err != nil {
		t.Fatalf("render page: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`<form id="prediction-form" method="post"`,
		`<div id="results"><p>Calculando previsão...</p></div>`,
		`<option value="B" selected>`,
		`name="SG_UF_PROVA" value="SP"`,
		`data-variant="dark"`,
		`--color-bg: #111827;`,
		`href="/static/predictform.css"`,
		`<p>Bem-vindo</p>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script>") || strings.Contains(html, "onclick") {
		t.Fatalf("intro markup was not sanitised:\n%s", html)
	}
}

func TestHTMLRenderer_CanceledContext(t *testing.T) {
	renderer := newHTML(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := renderer.Render(ctx, LoadingView("")); err == nil {
		t.Fatalf("expected context error")
	}
}
