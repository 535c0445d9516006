package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/infrastructure/trademaster"
	"github.com/storefront/syncengine/internal/interfaces/http/dto"
)

// referenceList describes one ERP dictionary endpoint and how to pluck
// id -> name pairs out of its rows
type referenceList struct {
	key       string
	endpoint  string
	idField   string
	nameField string
}

// referenceLists mirrors the dictionaries the storefront admin needs when
// picking the export settings
var referenceLists = []referenceList{
	{key: "scheme", endpoint: "object/getScheme", idField: "idShema", nameField: "shema"},
	{key: "storage", endpoint: "object/getStorage", idField: "idSklad", nameField: "nameSklad"},
	{key: "checkout", endpoint: "object/moneyOwn", idField: "idDenSred", nameField: "naimenovanie"},
	{key: "legal", endpoint: "object/legalsOwn", idField: "idUrllico", nameField: "name"},
	{key: "contractor", endpoint: "object/legalsKontr", idField: "idUrllico", nameField: "name"},
	{key: "user", endpoint: "object/getLogin", idField: "id", nameField: "login"},
}

// proxyAllowedPrefixes limits the pass-through endpoint to read-only ERP
// surfaces; submission endpoints go through the export pipeline instead
var proxyAllowedPrefixes = []string{
	"object/",
	"item/get",
	"order/getSchet",
}

// ERPHandler exposes ERP reference data and a guarded pass-through
type ERPHandler struct {
	BaseHandler
	client *trademaster.Client
	logger *zap.Logger
}

// NewERPHandler creates a new ERPHandler
func NewERPHandler(client *trademaster.Client, logger *zap.Logger) *ERPHandler {
	return &ERPHandler{client: client, logger: logger.Named("erp_handler")}
}

// RegisterRoutes registers the ERP endpoints
func (h *ERPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/trademaster")
	group.GET("/config", h.Config)
	group.GET("/proxy", h.Proxy)
	group.POST("/proxy", h.Proxy)
}

// Config aggregates the ERP dictionaries used to configure order export:
// schemes, storages, checkouts, legal entities, contractors and API users
func (h *ERPHandler) Config(c *gin.Context) {
	result := make(map[string]map[string]string, len(referenceLists))
	for _, list := range referenceLists {
		raw, err := h.client.Call(c.Request.Context(), http.MethodGet, list.endpoint, nil)
		if err != nil {
			h.Error(c, http.StatusBadGateway, dto.ErrCodeRemoteUnavailable,
				fmt.Sprintf("Failed to load %s list", list.key))
			return
		}
		result[list.key] = pluck(raw, list.idField, list.nameField)
	}
	h.Success(c, result)
}

// Proxy forwards one request to a read-only ERP endpoint. The target comes
// from the endpoint query parameter; all other parameters pass through.
func (h *ERPHandler) Proxy(c *gin.Context) {
	endpoint := strings.TrimPrefix(strings.TrimSpace(c.Query("endpoint")), "/")
	if endpoint == "" {
		h.BadRequest(c, "endpoint query parameter is required")
		return
	}
	if !proxyEndpointAllowed(endpoint) {
		h.BadRequest(c, "endpoint is not allowed through the proxy")
		return
	}

	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if key == "endpoint" || len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err == nil {
			for key, values := range c.Request.PostForm {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}
		}
	}

	raw, err := h.client.Call(c.Request.Context(), c.Request.Method, endpoint, params)
	if err != nil {
		h.logger.Warn("Proxy call failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		h.Error(c, http.StatusBadGateway, dto.ErrCodeRemoteUnavailable, "Remote system did not respond")
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

func proxyEndpointAllowed(endpoint string) bool {
	for _, prefix := range proxyAllowedPrefixes {
		if strings.HasPrefix(endpoint, prefix) {
			return true
		}
	}
	return false
}

// pluck extracts id -> name pairs from a list of ERP rows. Numeric ids are
// normalized to their plain string form.
func pluck(raw json.RawMessage, idField, nameField string) map[string]string {
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return map[string]string{}
	}

	result := make(map[string]string, len(rows))
	for _, row := range rows {
		id := fieldString(row[idField])
		if id == "" {
			continue
		}
		result[id] = fieldString(row[nameField])
	}
	return result
}

func fieldString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
