package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/craftrealm/realm-api/internal/account"
	"github.com/craftrealm/realm-api/internal/audit"
	"github.com/craftrealm/realm-api/internal/auth"
	"github.com/craftrealm/realm-api/internal/clock"
	"github.com/craftrealm/realm-api/internal/faction"
	"github.com/craftrealm/realm-api/internal/logging"
	"github.com/craftrealm/realm-api/internal/middleware"
	"github.com/craftrealm/realm-api/internal/models"
	"github.com/craftrealm/realm-api/internal/shop"
	"github.com/craftrealm/realm-api/internal/store"
)

type APISuite struct {
	suite.Suite
	store   *store.MemoryStore
	journal *audit.Memory
	handler http.Handler
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.store = store.NewMemoryStore()
	s.journal = &audit.Memory{}
	s.handler = s.build(nil)

	_, err := s.store.ImportItems(context.Background(), []models.Item{
		{Name: "Bouclier", Price: 500, Rarity: "commun"},
		{Name: "Élytres", Price: 800, Rarity: "legendaire"},
	})
	s.Require().NoError(err)
}

func (s *APISuite) build(limiter *middleware.RateLimiter) http.Handler {
	log := logging.Discard()
	clk := clock.NewFixed(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	hasher, err := auth.NewHasher(auth.SchemeMD5)
	s.Require().NoError(err)
	journal := audit.NewJournal(s.journal, log)

	return New(Deps{
		Auth:        auth.NewService(s.store, hasher, clk, log),
		Account:     account.NewService(s.store),
		Shop:        shop.NewService(s.store, nil, journal, clk, log),
		Faction:     faction.NewService(s.store, journal, clk, log),
		RateLimiter: limiter,
		Origins:     []string{"*"},
		Log:         log,
	})
}

func (s *APISuite) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	code, raw := s.doRaw(method, path, token, body)
	var out map[string]interface{}
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &out), string(raw))
	}
	return code, out
}

func (s *APISuite) doRaw(method, path, token string, body interface{}) (int, []byte) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

// signup registers and logs in a player, returning its token.
func (s *APISuite) signup(email, pseudo string) string {
	code, _ := s.do(http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": "secret", "pseudoMinecraft": pseudo,
	})
	s.Require().Equal(http.StatusCreated, code)

	code, body := s.do(http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "secret",
	})
	s.Require().Equal(http.StatusOK, code)
	return body["token"].(string)
}

func (s *APISuite) TestRegisterResponse() {
	code, body := s.do(http.MethodPost, "/api/register", "", map[string]string{
		"email": "steve@craftrealm.fr", "password": "secret", "pseudoMinecraft": "Steve",
	})
	s.Equal(http.StatusCreated, code)
	s.Equal("Inscription réussie", body["message"])

	user := body["user"].(map[string]interface{})
	s.Equal("steve@craftrealm.fr", user["email"])
	s.Equal("Steve", user["pseudoMinecraft"])
	s.Equal(float64(1000), user["credits"])
	s.NotContains(user, "password")
}

func (s *APISuite) TestRegisterFailures() {
	code, body := s.do(http.MethodPost, "/api/register", "", map[string]string{"email": "x@craftrealm.fr"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Email et password requis", body["error"])

	s.signup("dup@craftrealm.fr", "Dup")
	code, body = s.do(http.MethodPost, "/api/register", "", map[string]string{
		"email": "dup@craftrealm.fr", "password": "other",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Cet email est déjà utilisé", body["error"])
}

func (s *APISuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestLoginFailures() {
	s.signup("steve@craftrealm.fr", "Steve")

	code, body := s.do(http.MethodPost, "/api/login", "", map[string]string{
		"email": "steve@craftrealm.fr", "password": "wrong",
	})
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Identifiants incorrects", body["error"])

	code, _ = s.do(http.MethodPost, "/api/login", "", map[string]string{"email": "steve@craftrealm.fr"})
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestProfileReadAndPartialUpdate() {
	token := s.signup("steve@craftrealm.fr", "Steve")

	code, body := s.do(http.MethodGet, "/api/me", token, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Steve", body["pseudoMinecraft"])
	s.Nil(body["uuidMinecraft"])
	s.Equal("2024-06-01 12:00:00", body["dateInscription"])
	s.Equal([]interface{}{"ROLE_USER"}, body["roles"])
	s.Nil(body["faction"])

	code, body = s.do(http.MethodPut, "/api/me", token, map[string]string{
		"uuidMinecraft": "853c80ef3c3749fdaa49938b674adae6",
	})
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Profil mis à jour", body["message"])
	user := body["user"].(map[string]interface{})
	s.Equal("Steve", user["pseudoMinecraft"])
	s.Equal("853c80ef-3c37-49fd-aa49-938b674adae6", user["uuidMinecraft"])

	code, _ = s.do(http.MethodPut, "/api/me", token, nil)
	s.Equal(http.StatusOK, code)
}

func (s *APISuite) TestAuthRequired() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodPut, "/api/me"},
		{http.MethodPost, "/api/shop/buy/1"},
		{http.MethodGet, "/api/shop/inventory"},
		{http.MethodPost, "/api/faction"},
		{http.MethodPost, "/api/faction/join/1"},
		{http.MethodDelete, "/api/faction/1"},
	} {
		code, body := s.do(tc.method, tc.path, "", nil)
		s.Equal(http.StatusUnauthorized, code, tc.path)
		s.Equal("Non authentifié", body["error"], tc.path)

		code, _ = s.do(tc.method, tc.path, "deadbeef", nil)
		s.Equal(http.StatusUnauthorized, code, tc.path)
	}
}

func (s *APISuite) TestOldTokenRejectedAfterNewLogin() {
	old := s.signup("steve@craftrealm.fr", "Steve")

	_, body := s.do(http.MethodPost, "/api/login", "", map[string]string{
		"email": "steve@craftrealm.fr", "password": "secret",
	})
	fresh := body["token"].(string)

	code, _ := s.do(http.MethodGet, "/api/me", old, nil)
	s.Equal(http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/api/me", fresh, nil)
	s.Equal(http.StatusOK, code)
}

func (s *APISuite) TestShopListing() {
	code, raw := s.doRaw(http.MethodGet, "/api/shop", "", nil)
	s.Require().Equal(http.StatusOK, code)

	var items []map[string]interface{}
	s.Require().NoError(json.Unmarshal(raw, &items))
	s.Require().Len(items, 2)
	s.Equal("Bouclier", items[0]["nom"])
	s.Equal(float64(500), items[0]["prix"])
	s.Equal("commun", items[0]["rarete"])
	s.Contains(items[0], "description")
}

func (s *APISuite) TestInsufficientFundsScenario() {
	token := s.signup("steve@craftrealm.fr", "Steve")

	code, body := s.do(http.MethodPost, "/api/shop/buy/1", token, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Achat réussi !", body["message"])
	s.Equal("Bouclier", body["item"])
	s.Equal(float64(500), body["credits_restants"])

	code, body = s.do(http.MethodPost, "/api/shop/buy/2", token, nil)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Crédits insuffisants", body["error"])
	s.Equal(float64(800), body["requis"])
	s.Equal(float64(500), body["disponibles"])

	code, body = s.do(http.MethodGet, "/api/shop/inventory", token, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(float64(500), body["credits"])
	inv := body["inventaire"].([]interface{})
	s.Require().Len(inv, 1)
	line := inv[0].(map[string]interface{})
	s.Equal(float64(1), line["quantite"])
	s.Equal("2024-06-01 12:00:00", line["dateAchat"])
	s.Equal("Bouclier", line["item"].(map[string]interface{})["nom"])
}

func (s *APISuite) TestBuyUnknownItem() {
	token := s.signup("steve@craftrealm.fr", "Steve")

	code, body := s.do(http.MethodPost, "/api/shop/buy/99", token, nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal("Item introuvable", body["error"])

	code, _ = s.do(http.MethodPost, "/api/shop/buy/abc", token, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *APISuite) TestAlphaScenario() {
	alice := s.signup("alice@craftrealm.fr", "Alice")

	code, body := s.do(http.MethodPost, "/api/faction", alice, map[string]string{
		"nom": "Alpha", "description": "Les premiers",
	})
	s.Require().Equal(http.StatusCreated, code)
	s.Equal("Faction créée avec succès", body["message"])
	s.Equal(float64(0), body["credits_restants"])
	created := body["faction"].(map[string]interface{})
	s.Equal("Alpha", created["nom"])
	s.Equal("Alice", created["chef"])
	s.Equal(float64(0), created["power"])
	alphaID := int64(created["id"].(float64))

	bob := s.signup("bob@craftrealm.fr", "Bob")
	code, body = s.do(http.MethodPost, "/api/faction", bob, map[string]string{"nom": "Alpha"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Ce nom de faction est déjà utilisé", body["error"])

	code, body = s.do(http.MethodPost, fmt.Sprintf("/api/faction/join/%d", alphaID), bob, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Vous avez rejoint la faction", body["message"])

	_, body = s.do(http.MethodGet, "/api/me", bob, nil)
	s.Equal(float64(alphaID), body["faction"])
	s.Equal(float64(1000), body["credits"])

	code, raw := s.doRaw(http.MethodGet, "/api/factions", "", nil)
	s.Require().Equal(http.StatusOK, code)
	var list []map[string]interface{}
	s.Require().NoError(json.Unmarshal(raw, &list))
	s.Require().Len(list, 1)
	s.Equal(float64(2), list[0]["membres"])
	s.Equal("Alice", list[0]["chef"])
	s.Equal("2024-06-01 12:00:00", list[0]["dateCreation"])

	code, body = s.do(http.MethodPost, fmt.Sprintf("/api/faction/join/%d", alphaID), bob, nil)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Vous êtes déjà dans une faction", body["error"])
}

func (s *APISuite) TestCreateFactionValidation() {
	poor := s.signup("poor@craftrealm.fr", "Poor")
	code, _ := s.do(http.MethodPost, "/api/shop/buy/1", poor, nil)
	s.Require().Equal(http.StatusOK, code)

	code, body := s.do(http.MethodPost, "/api/faction", poor, map[string]string{"nom": "Beta"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal(float64(1000), body["requis"])
	s.Equal(float64(500), body["disponibles"])

	rich := s.signup("rich@craftrealm.fr", "Rich")
	code, body = s.do(http.MethodPost, "/api/faction", rich, map[string]string{})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Nom de faction requis", body["error"])
}

func (s *APISuite) TestDissolveFlow() {
	alice := s.signup("alice@craftrealm.fr", "Alice")
	_, body := s.do(http.MethodPost, "/api/faction", alice, map[string]string{"nom": "Alpha"})
	id := int64(body["faction"].(map[string]interface{})["id"].(float64))
	path := fmt.Sprintf("/api/faction/%d", id)

	bob := s.signup("bob@craftrealm.fr", "Bob")
	_, _ = s.do(http.MethodPost, fmt.Sprintf("/api/faction/join/%d", id), bob, nil)

	code, body := s.do(http.MethodDelete, path, bob, nil)
	s.Equal(http.StatusForbidden, code)
	s.Equal("Permission refusée", body["error"])

	code, body = s.do(http.MethodDelete, path, alice, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Faction dissoute", body["message"])

	_, body = s.do(http.MethodGet, "/api/me", bob, nil)
	s.Nil(body["faction"])

	code, body = s.do(http.MethodDelete, path, alice, nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal("Faction introuvable", body["error"])

	code, raw := s.doRaw(http.MethodGet, "/api/factions", "", nil)
	s.Equal(http.StatusOK, code)
	s.JSONEq(`[]`, string(raw))
}

func (s *APISuite) TestOperationalRoutes() {
	code, body := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, code)
	s.Equal("ok", body["status"])

	code, _ = s.doRaw(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/api/nowhere", "", nil)
	s.Equal(http.StatusNotFound, code)
	s.NotEmpty(body["error"])

	code, body = s.do(http.MethodPatch, "/api/me", "", nil)
	s.Equal(http.StatusMethodNotAllowed, code)
	s.NotEmpty(body["error"])
}

func (s *APISuite) TestAuthEndpointsRateLimited() {
	s.handler = s.build(middleware.NewRateLimiter(1, 1, logging.Discard()))

	creds := map[string]string{"email": "x@craftrealm.fr", "password": "y"}
	code, _ := s.do(http.MethodPost, "/api/login", "", creds)
	s.Equal(http.StatusUnauthorized, code)

	code, body := s.do(http.MethodPost, "/api/login", "", creds)
	s.Equal(http.StatusTooManyRequests, code)
	s.NotEmpty(body["error"])

	code, _ = s.doRaw(http.MethodGet, "/api/shop", "", nil)
	s.Equal(http.StatusOK, code)
}
