package trademaster

import (
	"context"
	"encoding/json"
	"net/http"
)

// ConfigLists aggregates the ERP's reference lists used to populate the
// sync settings: schemes, storages, cash desks, legal entities,
// contractors, and manager logins
type ConfigLists struct {
	Scheme     map[string]string `json:"scheme"`
	Storage    map[string]string `json:"storage"`
	Checkout   map[string]string `json:"checkout"`
	Legal      map[string]string `json:"legal"`
	Contractor map[string]string `json:"contractor"`
	User       map[string]string `json:"user"`
}

// referenceList fetches one object/* endpoint and plucks id -> label pairs
func (c *Client) referenceList(ctx context.Context, endpoint, idField, labelField string) map[string]string {
	out := make(map[string]string)

	raw, err := c.Call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out
	}

	var rows []map[string]text
	if err := json.Unmarshal(raw, &rows); err != nil {
		return out
	}
	for _, row := range rows {
		id := row[idField].String()
		if id != "" {
			out[id] = row[labelField].String()
		}
	}
	return out
}

// ConfigLists pulls all reference lists from the ERP
func (c *Client) ConfigLists(ctx context.Context) ConfigLists {
	return ConfigLists{
		Scheme:     c.referenceList(ctx, "object/getScheme", "idShema", "shema"),
		Storage:    c.referenceList(ctx, "object/getStorage", "idSklad", "nameSklad"),
		Checkout:   c.referenceList(ctx, "object/moneyOwn", "idDenSred", "naimenovanie"),
		Legal:      c.referenceList(ctx, "object/legalsOwn", "idUrllico", "name"),
		Contractor: c.referenceList(ctx, "object/legalsKontr", "idUrllico", "name"),
		User:       c.referenceList(ctx, "object/getLogin", "id", "login"),
	}
}
