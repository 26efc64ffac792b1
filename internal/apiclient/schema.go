package apiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/expense-client/api"
	"github.com/getkin/kin-openapi/openapi3"
)

// Component schema names checked at the boundary.
const (
	SchemaAuthResult        = "AuthResult"
	SchemaExpense           = "Expense"
	SchemaExpenseList       = "ExpenseList"
	SchemaAnalyticsSnapshot = "AnalyticsSnapshot"
)

// SchemaValidator checks raw response payloads against the component schemas
// of the embedded OpenAPI document before they are decoded into records.
type SchemaValidator struct {
	doc *openapi3.T
}

func NewSchemaValidator(ctx context.Context) (*SchemaValidator, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return &SchemaValidator{doc: doc}, nil
}

func (v *SchemaValidator) Validate(schema string, raw []byte) error {
	ref, ok := v.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schema)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("malformed %s payload: %w", schema, err)
	}
	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%s payload does not match schema: %w", schema, err)
	}
	return nil
}
