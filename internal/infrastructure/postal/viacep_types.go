package postal

import (
	"bytes"
	"strconv"
)

// viaCEPResponse is the JSON body of GET /ws/{cep}/json/
type viaCEPResponse struct {
	CEP         string     `json:"cep"`
	Logradouro  string     `json:"logradouro"`
	Complemento string     `json:"complemento"`
	Bairro      string     `json:"bairro"`
	Localidade  string     `json:"localidade"`
	UF          string     `json:"uf"`
	Erro        viaCEPFlag `json:"erro"`
}

// viaCEPFlag accepts the "erro" marker both as a JSON boolean and as the
// string "true", since ViaCEP has returned each form over time.
type viaCEPFlag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *viaCEPFlag) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	if raw == "" || raw == "null" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return err
	}
	*f = viaCEPFlag(v)
	return nil
}
