package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/betting/dto"
	"github.com/diodzi/gthacks-backend/internal/betting/repo"
	"github.com/diodzi/gthacks-backend/pkg/contracts/events"
)

// Publisher emite eventos de domínio no Kafka
type Publisher interface {
	PublishTicketPlaced(context.Context, events.TicketPlaced) error
	PublishBetSettled(context.Context, events.BetSettled) error
}

// Broadcaster repassa liquidações para o fan-out das salas via Pub/Sub
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Server struct {
	log     *zap.Logger
	repo    *repo.Postgres
	publ    Publisher
	bcast   Broadcaster
	channel string
}

func NewServer(log *zap.Logger, r *repo.Postgres, p Publisher, b Broadcaster, channel string) *Server {
	return &Server{log: log, repo: r, publ: p, bcast: b, channel: channel}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/bets", s.createBet)     // POST
	mux.HandleFunc("/bets/", s.betAction)    // POST /bets/{id}/place|settle|cancel
	mux.HandleFunc("/tickets/", s.ticketGet) // GET /tickets/{id}
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Name == "" || req.OddsMultiplier <= 0 {
		writeError(w, http.StatusBadRequest, "name and oddsMultiplier are required")
		return
	}

	betTime := time.Now()
	if req.Time != "" {
		t, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "time must be RFC3339")
			return
		}
		betTime = t
	}

	id, err := s.repo.CreateBet(r.Context(), &repo.Bet{
		Name:           req.Name,
		Time:           betTime,
		Line:           req.Line,
		OddsMultiplier: req.OddsMultiplier,
	})
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, dto.CreateBetResponse{BetID: id})
}

// betAction roteia POST /bets/{id}/place, /bets/{id}/settle e /bets/{id}/cancel
func (s *Server) betAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/bets/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "betId required")
		return
	}
	betID, action := parts[0], parts[1]

	switch action {
	case "place":
		s.placeTicket(w, r, betID)
	case "settle":
		s.settleBet(w, r, betID)
	case "cancel":
		s.cancelBet(w, r, betID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) placeTicket(w http.ResponseWriter, r *http.Request, betID string) {
	var req dto.PlaceTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" || req.Amount <= 0 || (req.Side != repo.SideOver && req.Side != repo.SideUnder) {
		writeError(w, http.StatusBadRequest, "userId, amount and side are required")
		return
	}

	ticketID, err := s.repo.PlaceBet(r.Context(), req.UserID, betID, req.Amount, req.Side)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	// Evento é melhor-esforço; a aposta já foi confirmada no banco
	_ = s.publ.PublishTicketPlaced(r.Context(), events.TicketPlaced{
		TicketID:  ticketID,
		BetID:     betID,
		AccountID: req.UserID,
		Amount:    req.Amount,
		Side:      req.Side,
	})

	writeJSON(w, dto.PlaceTicketResponse{OK: true, TicketID: ticketID})
}

func (s *Server) settleBet(w http.ResponseWriter, r *http.Request, betID string) {
	var req dto.SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.FinalValue == nil {
		writeError(w, http.StatusBadRequest, "finalValue required")
		return
	}

	sum, err := s.repo.SettleBet(r.Context(), betID, *req.FinalValue)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.notifySettled(r.Context(), events.BetSettled{
		BetID:      betID,
		FinalValue: *req.FinalValue,
		Settled:    sum.Settled,
		Won:        sum.Won,
		Lost:       sum.Lost,
		PaidOut:    sum.PaidOut,
		Ts:         time.Now(),
	})

	writeJSON(w, dto.SettleBetResponse{OK: true, Summary: toSummary(sum)})
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request, betID string) {
	sum, err := s.repo.CancelBet(r.Context(), betID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.notifySettled(r.Context(), events.BetSettled{
		BetID:   betID,
		Settled: sum.Settled,
		Voided:  sum.Voided,
		PaidOut: sum.PaidOut,
		Ts:      time.Now(),
	})

	writeJSON(w, dto.SettleBetResponse{OK: true, Summary: toSummary(sum)})
}

func (s *Server) ticketGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/tickets/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "ticketId required")
		return
	}

	st, err := s.repo.TicketStatus(r.Context(), id)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, dto.TicketStatusResponse{TicketID: id, Status: st})
}

// notifySettled publica a liquidação no Kafka e no canal Pub/Sub das salas
func (s *Server) notifySettled(ctx context.Context, e events.BetSettled) {
	if err := s.publ.PublishBetSettled(ctx, e); err != nil {
		s.log.Warn("publish bet_settled", zap.Error(err))
	}
	b, _ := json.Marshal(e)
	if err := s.bcast.Publish(ctx, s.channel, b); err != nil {
		s.log.Warn("pubsub bet_settled", zap.Error(err))
	}
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, repo.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient points")
	case errors.Is(err, repo.ErrBetNotFound):
		writeError(w, http.StatusNotFound, "bet not found")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error("repo", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "try again")
	}
}

func toSummary(s repo.Summary) dto.SettlementSummary {
	return dto.SettlementSummary{
		Settled: s.Settled,
		Won:     s.Won,
		Lost:    s.Lost,
		Voided:  s.Voided,
		PaidOut: s.PaidOut,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
