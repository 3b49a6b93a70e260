package notify

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jinsharnammedia/commerce/internal/domain"
)

var statusEmailBody = template.Must(template.New("status").
	Funcs(template.FuncMap{"formatAmount": formatAmount}).
	Parse(`Hi {{.Name}},

Your order {{.OrderID}} is now {{.Status}}.

Items:
{{- range .Items}}
  {{.Quantity}} x {{.Name}} - {{formatAmount .LineTotal}}
{{- end}}

Delivery: {{formatAmount .DeliveryAmount}}
Total: {{formatAmount .TotalAmount}}
{{- if .Address}}

Shipping to:
  {{.Address.FullName}}
  {{.Address.AddressLine}}
  {{.Address.City}}, {{.Address.State}} {{.Address.PostalCode}}
  {{.Address.Country}}
{{- end}}

Thank you for shopping with us.
`))

type itemLine struct {
	Name      string
	Quantity  int
	LineTotal int64
}

type statusEmailData struct {
	Name           string
	OrderID        string
	Status         string
	Items          []itemLine
	DeliveryAmount int64
	TotalAmount    int64
	Address        *domain.Address
}

// formatAmount renders a minor-units amount as a decimal string (e.g. 64800
// becomes "648.00").
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// StatusEmail renders the order status notification for the given recipient.
func StatusEmail(contact *domain.UserContact, order *domain.Order) (*Email, error) {
	items := make([]itemLine, len(order.Items))
	for i := range order.Items {
		items[i] = itemLine{
			Name:      order.Items[i].Name,
			Quantity:  order.Items[i].Quantity,
			LineTotal: order.Items[i].LineTotal(),
		}
	}

	data := statusEmailData{
		Name:           contact.Name,
		OrderID:        order.ID,
		Status:         order.Status,
		Items:          items,
		DeliveryAmount: order.DeliveryAmount,
		TotalAmount:    order.TotalAmount,
		Address:        order.ShippingAddress,
	}

	var body strings.Builder
	if err := statusEmailBody.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render status email: %w", err)
	}

	return &Email{
		To:      contact.Email,
		ToName:  contact.Name,
		Subject: fmt.Sprintf("Order %s: %s", order.ID, order.Status),
		Body:    body.String(),
	}, nil
}
