package validators

import "testing"

func TestIsEmailDomainValidRejectsMalformed(t *testing.T) {
	// nenhum destes chega a consultar o DNS
	for _, email := range []string{"", "ana", "@navalha.com", "ana@", "ana@localhost"} {
		if IsEmailDomainValid(t.Context(), email) {
			t.Fatalf("%q accepted", email)
		}
	}
}
