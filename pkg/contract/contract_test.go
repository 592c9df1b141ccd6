package contract

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/model"
)

func loadDefault(t *testing.T) *Contract {
	t.Helper()
	c, err := Default(context.Background())
	if err != nil {
		t.Fatalf("load default contract: %v", err)
	}
	return c
}

func TestDefault_FeaturesInDeclaredOrder(t *testing.T) {
	c := loadDefault(t)

	want := []string{"Q006", "Q002", "TP_ESCOLA", "TP_COR_RACA", "SG_UF_PROVA"}
	if diff := cmp.Diff(want, c.Features()); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, c.Required()); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_SubjectsMatchResultSchema(t *testing.T) {
	c := loadDefault(t)

	if diff := cmp.Diff(model.DefaultSubjects(), c.Subjects()); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_FieldOptionsAndLabels(t *testing.T) {
	c := loadDefault(t)
	form := c.Form()

	if form.Method != "POST" || form.Endpoint != "/predict" || form.ID != "predict" {
		t.Fatalf("unexpected operation metadata: %+v", form)
	}
	if form.Title != "Previsão de Notas do ENEM" {
		t.Fatalf("unexpected title %q", form.Title)
	}

	school, ok := form.Field("TP_ESCOLA")
	if !ok {
		t.Fatalf("expected TP_ESCOLA field")
	}
	want := []model.Option{
		{Value: "1", Label: "Não respondeu"},
		{Value: "2", Label: "Pública"},
		{Value: "3", Label: "Privada"},
	}
	if diff := cmp.Diff(want, school.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if !school.Required || school.Label != "Tipo de escola do Ensino Médio" {
		t.Fatalf("unexpected field: %+v", school)
	}

	state, _ := form.Field("SG_UF_PROVA")
	if len(state.Options) != 27 {
		t.Fatalf("expected 27 states, got %d", len(state.Options))
	}
	if state.Options[0].Label != "AC" {
		t.Fatalf("unlabelled enum should use its value, got %q", state.Options[0].Label)
	}

	income, _ := form.Field("Q006")
	if got := income.OptionLabel("A"); got != "Nenhuma renda" {
		t.Fatalf("unexpected income label %q", got)
	}
}

func TestContract_Missing(t *testing.T) {
	c := loadDefault(t)

	input := model.NewFormInput("Q002", "E", "TP_ESCOLA", " ", "SG_UF_PROVA", "SP")
	want := []string{"Q006", "TP_ESCOLA", "TP_COR_RACA"}
	if diff := cmp.Diff(want, c.Missing(input)); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}

	complete := model.NewFormInput("Q006", "B", "Q002", "E", "TP_ESCOLA", "2", "TP_COR_RACA", "3", "SG_UF_PROVA", "SP")
	if got := c.Missing(complete); len(got) != 0 {
		t.Fatalf("expected no missing fields, got %v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := Load(ctx, nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := Load(ctx, []byte("{not yaml")); err == nil {
		t.Fatalf("expected error for invalid document")
	}
	if _, err := Load(ctx, Document(), WithPath("/elsewhere")); err == nil {
		t.Fatalf("expected error for unknown path")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Load(canceled, Document()); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestLoad_CustomDocumentFallsBackToDefaultSubjects(t *testing.T) {
	raw := []byte(`
openapi: 3.0.3
info:
  title: Mini
  version: "1"
paths:
  /score:
    post:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                b:
                  type: string
                a:
                  type: string
                  default: x
      responses:
        "200":
          description: ok
`)
	c, err := Load(context.Background(), raw, WithPath("/score"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, c.Features()); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
	if field, _ := c.Form().Field("a"); field.Default != "x" {
		t.Fatalf("expected default value, got %q", field.Default)
	}
	if diff := cmp.Diff(model.DefaultSubjects(), c.Subjects()); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
	if c.Missing(model.NewFormInput()) != nil {
		t.Fatalf("no required fields declared")
	}
}
