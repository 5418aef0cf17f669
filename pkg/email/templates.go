package email

import (
	"bytes"
	"html/template"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	DeliveredTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	deliveredTmpl, err := template.New("delivered").Parse(deliveryConfirmationTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{DeliveredTmpl: deliveredTmpl}, nil
}

// DeliveryConfirmationData holds the dynamic data for the delivered email.
type DeliveryConfirmationData struct {
	Name    string
	OrderID string
	Total   string
}

// GenerateDeliveryConfirmationHTML executes the delivered template.
func (tm *TemplateManager) GenerateDeliveryConfirmationHTML(data DeliveryConfirmationData) (string, error) {
	var buf bytes.Buffer
	if err := tm.DeliveredTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const deliveryConfirmationTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Your delivery is complete</h2>
  <p>Hi {{.Name}},</p>
  <p>Your order <strong>{{.OrderID}}</strong> has been delivered.</p>
  <p>Total charged: <strong>{{.Total}}</strong></p>
  <p>Thanks for shipping with us.</p>
</body>
</html>
`
