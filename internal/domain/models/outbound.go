package models

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// Receipt is the shareable rendering of a finalized sale.
type Receipt struct {
	SaleID    string `json:"saleId"`
	Text      string `json:"text"`
	ShareLink string `json:"shareLink"`
}
