package concordpay

import (
	"html/template"
	"net/url"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

// DefaultAPIURL is the hosted payment page endpoint.
const DefaultAPIURL = "https://pay.concord.ua/api/"

// FormTemplateName is the name the payment form is registered under.
const FormTemplateName = "concordpay_form"

// FormTemplate renders a hidden form that submits itself to the payment page
// once the document has loaded.
var FormTemplate = template.Must(template.New(FormTemplateName).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>ConcordPay</title></head>
<body>
<form method="post" id="form_concordpay" action="{{.Action}}" accept-charset="utf-8">
{{- range .Inputs}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<input type="submit" style="display:none;"/>
</form>
<script type="text/javascript">window.addEventListener('DOMContentLoaded', function () { document.querySelector('#form_concordpay').submit(); })</script>
</body>
</html>
`))

// Input is a single hidden form input.
type Input struct {
	Name  string
	Value string
}

// Form is a payment request laid out for submission to the payment page.
type Form struct {
	Action string
	Inputs []Input
}

// NewForm lays out a signed request as form inputs. List fields become
// repeated "name[]" inputs, in order.
func NewForm(action string, req domain.PaymentRequest) Form {
	form := Form{Action: action}
	for _, f := range req.Fields() {
		name := f.Name
		if f.List {
			name += "[]"
		}
		for _, v := range f.Values {
			form.Inputs = append(form.Inputs, Input{Name: name, Value: v})
		}
	}
	return form
}

// Values returns the form inputs as URL-encodable values.
func (f Form) Values() url.Values {
	values := url.Values{}
	for _, in := range f.Inputs {
		values.Add(in.Name, in.Value)
	}
	return values
}
