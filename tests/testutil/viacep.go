package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/attornatus/backend/internal/domain/registry"
)

// ViaCEPServer emulates the ViaCEP web service. Known codes answer with an
// address, unknown ones with {"erro": true}.
type ViaCEPServer struct {
	*httptest.Server

	mu      sync.RWMutex
	entries map[string]registry.PostalAddress
	down    atomic.Bool
	hits    atomic.Int64
}

// Well-known postal codes served by NewViaCEPServer
var (
	PostalManaus = registry.PostalAddress{
		Street:     "Rua Dez",
		City:       "Manaus",
		PostalCode: "69098384",
	}
	PostalSaoPaulo = registry.PostalAddress{
		Street:     "Praça da Sé",
		City:       "São Paulo",
		PostalCode: "01001000",
	}
)

// NewViaCEPServer starts a fake ViaCEP that knows PostalManaus and
// PostalSaoPaulo. It is closed when the test ends.
func NewViaCEPServer(t *testing.T) *ViaCEPServer {
	t.Helper()

	s := &ViaCEPServer{entries: map[string]registry.PostalAddress{
		PostalManaus.PostalCode:   PostalManaus,
		PostalSaoPaulo.PostalCode: PostalSaoPaulo,
	}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Add registers another postal code
func (s *ViaCEPServer) Add(addr registry.PostalAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr.PostalCode] = addr
}

// SetDown makes every lookup fail with 503 until called with false
func (s *ViaCEPServer) SetDown(down bool) {
	s.down.Store(down)
}

// Hits returns how many lookups reached the server
func (s *ViaCEPServer) Hits() int64 {
	return s.hits.Load()
}

func (s *ViaCEPServer) serve(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	// /ws/{cep}/json/
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "ws" || parts[2] != "json" {
		http.NotFound(w, r)
		return
	}
	if s.down.Load() {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	code := parts[1]
	if len(code) != 8 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	addr, ok := s.entries[code]
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if !ok {
		_, _ = w.Write([]byte(`{"erro": true}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"cep":         code[:5] + "-" + code[5:],
		"logradouro":  addr.Street,
		"complemento": "",
		"bairro":      "Centro",
		"localidade":  addr.City,
		"uf":          "AM",
	})
}
