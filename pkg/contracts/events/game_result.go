package events

// GameResult é publicado pelo job de ingestão quando um jogo termina.
// O settlement-worker consome e liquida a aposta correspondente.
type GameResult struct {
	BetID      string  `json:"bet_id"`
	FinalValue float64 `json:"final_value"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}
