// Package transport exposes the raffle host over HTTP and gRPC.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/deploy"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
	"github.com/goodnatureofminers/rafflekeeper/pkg/safe"
)

const (
	defaultWinnersLimit = 10
	maxWinnersLimit     = 100
	maxBodyBytes        = 1 << 16
)

// Contracts describes what the front end needs to talk to the deployment.
type Contracts struct {
	Network        string
	ChainID        int64
	Raffle         common.Address
	Coordinator    common.Address
	SubscriptionID uint64
	// Events maps raffle event names to their log topics.
	Events map[string]common.Hash
}

// HTTPHandler serves the JSON API.
type HTTPHandler struct {
	raffle    Raffle
	accounts  Accounts
	winners   Winners
	contracts Contracts
	metrics   Metrics
	logger    *zap.Logger
	engine    *gin.Engine
}

// NewHTTPHandler wires the routes. winners may be nil when no journal is configured.
func NewHTTPHandler(
	r Raffle,
	accounts Accounts,
	winners Winners,
	contracts Contracts,
	metrics Metrics,
	logger *zap.Logger,
) (*HTTPHandler, error) {
	if r == nil {
		return nil, errors.New("http raffle is required")
	}
	if accounts == nil {
		return nil, errors.New("http accounts is required")
	}
	if metrics == nil {
		return nil, errors.New("http metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &HTTPHandler{
		raffle:    r,
		accounts:  accounts,
		winners:   winners,
		contracts: contracts,
		metrics:   metrics,
		logger:    logger.Named("http"),
		engine:    gin.New(),
	}
	h.engine.Use(h.recovery())
	h.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := h.engine.Group("/api", h.observe(), h.recovery())
	{
		api.GET("/raffle", h.handle(h.getRaffle))
		api.POST("/raffle/enter", h.handle(h.enterRaffle))
		api.GET("/raffle/upkeep", h.handle(h.checkUpkeep))
		api.POST("/raffle/upkeep", h.handle(h.performUpkeep))
		api.GET("/raffle/players/:index", h.handle(h.getPlayer))
		api.GET("/accounts/:address", h.handle(h.getAccount))
		api.GET("/winners", h.handle(h.getWinners))
		api.GET("/contracts", h.handle(h.getContracts))
	}
	return h, nil
}

// Handler returns the routes behind permissive CORS for the browser front end.
func (h *HTTPHandler) Handler() http.Handler {
	return cors.Default().Handler(h.engine)
}

// observe records every API request under its route template.
func (h *HTTPHandler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.Request.Method + " " + c.FullPath()
		h.metrics.ObserveRequest(route, c.Request.Method, c.Writer.Status(), started)
	}
}

func (h *HTTPHandler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		h.logger.Error("handler panicked", zap.String("route", c.FullPath()), zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	})
}

type handlerFunc func(c *gin.Context) (any, error)

func (h *HTTPHandler) handle(fn handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := fn(c)
		if err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				h.logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
			}
			_ = c.Error(err)
			c.JSON(code, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type raffleResponse struct {
	Address          string   `json:"address"`
	State            string   `json:"state"`
	EntranceFee      string   `json:"entranceFee"`
	EntranceFeeEther string   `json:"entranceFeeEther"`
	IntervalSeconds  int64    `json:"interval"`
	LastTimestamp    int64    `json:"lastTimestamp"`
	Players          []string `json:"players"`
	NumberOfPlayers  int      `json:"numberOfPlayers"`
	Balance          string   `json:"balance"`
	RecentWinner     string   `json:"recentWinner"`
	PendingRequestID *uint64  `json:"pendingRequestId,omitempty"`
	Round            uint64   `json:"round"`
}

func (h *HTTPHandler) getRaffle(_ *gin.Context) (any, error) {
	s := h.raffle.Snapshot()
	resp := raffleResponse{
		Address:          s.Address.Hex(),
		State:            s.State.String(),
		EntranceFee:      s.EntranceFee.String(),
		EntranceFeeEther: model.FormatEther(s.EntranceFee),
		IntervalSeconds:  int64(s.Interval / time.Second),
		LastTimestamp:    s.LastTimestamp.Unix(),
		Players:          make([]string, 0, len(s.Players)),
		NumberOfPlayers:  len(s.Players),
		Balance:          s.Balance.String(),
		RecentWinner:     s.RecentWinner.Hex(),
		Round:            s.Round,
	}
	for _, p := range s.Players {
		resp.Players = append(resp.Players, p.Hex())
	}
	if s.HasPendingRequest {
		id := s.PendingRequestID
		resp.PendingRequestID = &id
	}
	return resp, nil
}

type enterRequest struct {
	Player string `json:"player" binding:"required"`
	// Value is in ether, e.g. "0.01".
	Value string `json:"value" binding:"required"`
}

type enterResponse struct {
	Player  string `json:"player"`
	Deposit string `json:"deposit"`
	Players int    `json:"numberOfPlayers"`
}

func (h *HTTPHandler) enterRaffle(c *gin.Context) (any, error) {
	var req enterRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	player, err := parseAddress(req.Player)
	if err != nil {
		return nil, err
	}
	deposit, err := model.ParseEther(req.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	if err := h.raffle.EnterRaffle(c.Request.Context(), player, deposit); err != nil {
		return nil, err
	}
	return enterResponse{
		Player:  player.Hex(),
		Deposit: deposit.String(),
		Players: len(h.raffle.Snapshot().Players),
	}, nil
}

type upkeepResponse struct {
	UpkeepNeeded bool    `json:"upkeepNeeded"`
	RequestID    *uint64 `json:"requestId,omitempty"`
}

func (h *HTTPHandler) checkUpkeep(c *gin.Context) (any, error) {
	return upkeepResponse{UpkeepNeeded: h.raffle.CheckUpkeep(c.Request.Context())}, nil
}

func (h *HTTPHandler) performUpkeep(c *gin.Context) (any, error) {
	requestID, err := h.raffle.PerformUpkeep(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return upkeepResponse{UpkeepNeeded: true, RequestID: &requestID}, nil
}

type playerResponse struct {
	Index  int    `json:"index"`
	Player string `json:"player"`
}

func (h *HTTPHandler) getPlayer(c *gin.Context) (any, error) {
	raw, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: player index: %v", errBadRequest, err)
	}
	index, err := safe.Int(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	player, err := h.raffle.Player(index)
	if err != nil {
		return nil, err
	}
	return playerResponse{Index: index, Player: player.Hex()}, nil
}

type accountResponse struct {
	Address      string `json:"address"`
	Balance      string `json:"balance"`
	BalanceEther string `json:"balanceEther"`
}

func (h *HTTPHandler) getAccount(c *gin.Context) (any, error) {
	addr, err := parseAddress(c.Param("address"))
	if err != nil {
		return nil, err
	}
	balance := h.accounts.BalanceOf(addr)
	return accountResponse{
		Address:      addr.Hex(),
		Balance:      balance.String(),
		BalanceEther: model.FormatEther(balance),
	}, nil
}

type winnerResponse struct {
	Contract  string `json:"contract"`
	Round     uint64 `json:"round"`
	Winner    string `json:"winner"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

func (h *HTTPHandler) getWinners(c *gin.Context) (any, error) {
	if h.winners == nil {
		return nil, errJournalOffline
	}
	limit := uint64(defaultWinnersLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: limit: %v", errBadRequest, err)
		}
		if limit, err = safe.Uint64(n); err != nil {
			return nil, fmt.Errorf("%w: limit: %v", errBadRequest, err)
		}
		limit = min(limit, maxWinnersLimit)
	}

	winners, err := h.winners.RecentWinners(c.Request.Context(), limit)
	if err != nil {
		return nil, fmt.Errorf("recent winners: %w", err)
	}
	out := make([]winnerResponse, 0, len(winners))
	for _, w := range winners {
		amount := w.Amount
		if amount == nil {
			amount = new(big.Int)
		}
		out = append(out, winnerResponse{
			Contract:  w.Contract.Hex(),
			Round:     w.Round,
			Winner:    w.Winner.Hex(),
			Amount:    amount.String(),
			Timestamp: w.Timestamp.Unix(),
		})
	}
	return out, nil
}

type contractsResponse struct {
	Network        string            `json:"network"`
	ChainID        int64             `json:"chainId"`
	Raffle         string            `json:"raffle"`
	Coordinator    string            `json:"vrfCoordinator"`
	SubscriptionID uint64            `json:"subscriptionId"`
	Events         map[string]string `json:"events"`
	ABI            json.RawMessage   `json:"abi"`
}

func (h *HTTPHandler) getContracts(_ *gin.Context) (any, error) {
	events := make(map[string]string, len(h.contracts.Events))
	for name, topic := range h.contracts.Events {
		events[name] = topic.Hex()
	}
	return contractsResponse{
		Network:        h.contracts.Network,
		ChainID:        h.contracts.ChainID,
		Raffle:         h.contracts.Raffle.Hex(),
		Coordinator:    h.contracts.Coordinator.Hex(),
		SubscriptionID: h.contracts.SubscriptionID,
		Events:         events,
		ABI:            deploy.RaffleABIJSON(),
	}, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", errBadRequest, s)
	}
	return common.HexToAddress(s), nil
}
