package handlers

import (
	"net/http"
)

const (
	usageText = "POST JSON: { image_url?: string, image_base64?: string, number_of_images?: number, callback_url?: string, product_id?: string, auth_token?: string }"
	usageHint = "Use image_url (public) for fastest performance."
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Usage answers GET / with the request contract.
func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"ok":    true,
		"usage": usageText,
		"hint":  usageHint,
	})
}
