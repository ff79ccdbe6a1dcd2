package response

type ErrorResponse struct {
	Error string `json:"error"`
}

type ConvertResponse struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"`
}

type MatrixEntry struct {
	Pair string  `json:"pair"`
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type MatrixResponse struct {
	Rates     []MatrixEntry `json:"rates"`
	Timestamp int64         `json:"timestamp"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
