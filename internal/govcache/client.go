package govcache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agrotrace/agrobio-go/internal/logger"
)

const (
	sourceAgrofit    = "agrofit"
	sourceBioinsumos = "bioinsumos"

	// fetchTimeout bounds every gov-API call; the upstream registries are
	// slow and frequently unreachable.
	fetchTimeout = 10 * time.Second

	defaultAgrofitBase    = "https://agrofit.agricultura.gov.br/agrofit_cons"
	defaultBioinsumosBase = "https://sistemasweb.agricultura.gov.br/pages/bioinsumos"
)

// AgrofitProduct is one MAPA Agrofit registry entry.
type AgrofitProduct struct {
	ID               string `json:"id"`
	NomeComercial    string `json:"nome_comercial"`
	IngredienteAtivo string `json:"ingrediente_ativo"`
	Classe           string `json:"classe"`
	GrupoQuimico     string `json:"grupo_quimico"`
	Formulacao       string `json:"formulacao"`
	TitularRegistro  string `json:"titular_registro"`
	NumeroRegistro   string `json:"numero_registro"`
}

// BioinsumoEntry is one MAPA Bioinsumos platform entry.
type BioinsumoEntry struct {
	ID        string `json:"id"`
	Nome      string `json:"nome"`
	Tipo      string `json:"tipo"`
	Organismo string `json:"organismo"`
	Registro  string `json:"registro"`
	Situacao  string `json:"situacao"`
}

// Client queries the government registries through the TTL cache. Lookups
// that fail (timeout, CORS-less upstreams, outages) degrade to an empty
// result rather than an error; the registries are best-effort enrichment.
type Client struct {
	svc            *Service
	httpClient     *http.Client
	agrofitBase    string
	bioinsumosBase string
	log            logger.Logger
}

// NewClient creates a Client over svc with the default registry endpoints.
func NewClient(svc *Service, log logger.Logger) *Client {
	return &Client{
		svc:            svc,
		httpClient:     &http.Client{Timeout: fetchTimeout},
		agrofitBase:    defaultAgrofitBase,
		bioinsumosBase: defaultBioinsumosBase,
		log:            log,
	}
}

// SearchAgrofit looks up products by commercial name, cache first.
func (c *Client) SearchAgrofit(ctx context.Context, query string) []AgrofitProduct {
	cacheKey := "search:" + strings.ToLower(strings.TrimSpace(query))
	if cached, err := c.svc.Lookup(ctx, sourceAgrofit, cacheKey); err == nil && cached != nil {
		var products []AgrofitProduct
		if json.Unmarshal(cached, &products) == nil {
			return products
		}
	}

	form := url.Values{"nome_comercial": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.agrofitBase+"/principal_agrofit_cons", strings.NewReader(form.Encode()))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload, err := c.fetch(req)
	if err != nil {
		c.log.Debug("agrofit lookup failed", logger.Error(err))
		return nil
	}
	var products []AgrofitProduct
	if err := json.Unmarshal(payload, &products); err != nil {
		c.log.Debug("agrofit response not decodable", logger.Error(err))
		return nil
	}
	if err := c.svc.Store(ctx, sourceAgrofit, cacheKey, payload, 0); err != nil {
		c.log.Warn("failed to cache agrofit response", logger.Error(err))
	}
	return products
}

// SearchBioinsumos looks up registered bio-inputs, cache first.
func (c *Client) SearchBioinsumos(ctx context.Context, query string) []BioinsumoEntry {
	cacheKey := "search:" + strings.ToLower(strings.TrimSpace(query))
	if cached, err := c.svc.Lookup(ctx, sourceBioinsumos, cacheKey); err == nil && cached != nil {
		var entries []BioinsumoEntry
		if json.Unmarshal(cached, &entries) == nil {
			return entries
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.bioinsumosBase+"/api/consulta?q="+url.QueryEscape(query), http.NoBody)
	if err != nil {
		return nil
	}

	payload, err := c.fetch(req)
	if err != nil {
		c.log.Debug("bioinsumos lookup failed", logger.Error(err))
		return nil
	}
	var entries []BioinsumoEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		c.log.Debug("bioinsumos response not decodable", logger.Error(err))
		return nil
	}
	if err := c.svc.Store(ctx, sourceBioinsumos, cacheKey, payload, 0); err != nil {
		c.log.Warn("failed to cache bioinsumos response", logger.Error(err))
	}
	return entries
}

func (c *Client) fetch(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
