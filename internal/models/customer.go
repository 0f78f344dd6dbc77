package models

import "strings"

// Address is the billing address block stored on the customer document.
// Field names follow the schema owned by the main Papa Tango system.
type Address struct {
	PostalCode   string `bson:"cep,omitempty" json:"postal_code,omitempty"`
	Street       string `bson:"logradouro,omitempty" json:"street,omitempty"`
	Number       string `bson:"numero,omitempty" json:"number,omitempty"`
	Neighborhood string `bson:"bairro,omitempty" json:"neighborhood,omitempty"`
	City         string `bson:"cidade,omitempty" json:"city,omitempty"`
	State        string `bson:"estado,omitempty" json:"state,omitempty"`
}

// Customer represents a registered customer. The document id is the
// customer's email address; read-only to this service.
type Customer struct {
	ID       string   `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string   `bson:"nome,omitempty" json:"name,omitempty"`
	FullName string   `bson:"nomeCompleto,omitempty" json:"full_name,omitempty"`
	Phone    string   `bson:"telefone,omitempty" json:"phone,omitempty"`
	CPF      string   `bson:"cpf,omitempty" json:"cpf,omitempty"`
	Address  *Address `bson:"endereco,omitempty" json:"address,omitempty"`
}

// DisplayName picks the best available name for customer-facing messages.
func (c *Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.FullName != "" {
		return c.FullName
	}
	return c.ID
}

// FirstName returns the customer's first name, for the payer block of
// charge requests.
func (c *Customer) FirstName() string {
	if c.Name != "" {
		return c.Name
	}
	if parts := strings.Fields(c.FullName); len(parts) > 0 {
		return parts[0]
	}
	return "Cliente"
}

// LastName returns everything after the first name of the full name.
func (c *Customer) LastName() string {
	if parts := strings.Fields(c.FullName); len(parts) > 1 {
		return strings.Join(parts[1:], " ")
	}
	return "Papa Tango"
}

// TaxID returns the customer's CPF with non-digits stripped, or the
// processor's placeholder when the CPF was never collected.
func (c *Customer) TaxID() string {
	digits := DigitsOnly(c.CPF)
	if digits == "" {
		return "00000000000"
	}
	return digits
}

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
