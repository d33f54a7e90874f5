package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
	"github.com/tidewater/seabridge/internal/opensea"
)

const defaultChain = "ethereum"

func chainParam(r *http.Request) string {
	if chain := r.URL.Query().Get("chain"); chain != "" {
		return chain
	}
	return defaultChain
}

func nftQuery(r *http.Request) gateway.Query {
	vars := mux.Vars(r)
	return gateway.Query{
		Chain:      chainParam(r),
		Contract:   vars["contract"],
		TokenID:    vars["token"],
		Collection: r.URL.Query().Get("collection"),
	}
}

// limitParam parses ?limit=. Absence means 0 and lets the service apply its
// default; a non-numeric value is rejected here.
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return limit, true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeOK(w, map[string]any{"status": "ok"})
}

func (s *Server) handleFloor(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Floor(r.Context(), chainParam(r), mux.Vars(r)["slug"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"floor": info})
}

func (s *Server) handleBestOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.svc.BestOffer(r.Context(), nftQuery(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	// offer is nil when none exists; that is a successful answer.
	s.writeOK(w, map[string]any{"bestOffer": offer})
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "limit must be an integer", 0)
		return
	}
	offers, err := s.svc.Offers(r.Context(), nftQuery(r), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"offers": offers})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "limit must be an integer", 0)
		return
	}
	listings, err := s.svc.Listings(r.Context(), nftQuery(r), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"listings": listings})
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "limit must be an integer", 0)
		return
	}
	sales, err := s.svc.Sales(r.Context(), nftQuery(r), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"sales": sales})
}

func (s *Server) handleNFT(w http.ResponseWriter, r *http.Request) {
	nft, err := s.svc.NFT(r.Context(), nftQuery(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"nft": nft})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	points, err := s.svc.History(r.Context(), nftQuery(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"points": points})
}

func (s *Server) handleAccountNFTs(w http.ResponseWriter, r *http.Request) {
	nfts, err := s.svc.AccountNFTs(r.Context(), chainParam(r), mux.Vars(r)["address"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"nfts": nfts})
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Chain           string          `json:"chain"`
		Parameters      json.RawMessage `json:"parameters"`
		Signature       string          `json:"signature"`
		ProtocolAddress string          `json:"protocolAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", 0)
		return
	}
	if req.Chain == "" {
		req.Chain = defaultChain
	}

	raw, err := s.svc.SubmitListing(r.Context(), req.Chain, &opensea.SignedOrderPayload{
		Parameters:      req.Parameters,
		Signature:       req.Signature,
		ProtocolAddress: req.ProtocolAddress,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeOK(w, map[string]any{"order": sanitizeNumbers(raw)})
}

func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req fulfill.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", 0)
		return
	}

	res, err := s.resolver.Fulfill(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeResolution(w, res)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req fulfill.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", 0)
		return
	}

	res, err := s.resolver.Cancel(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeResolution(w, res)
}

// writeResolution reports a resolver outcome. A declined resolution is still
// HTTP 200: the gateway handled the request, the marketplace or the safety
// check said no.
func (s *Server) writeResolution(w http.ResponseWriter, res *fulfill.Result) {
	if !res.Ready {
		body := map[string]any{"ok": false, "error": res.Code, "message": res.Message}
		if res.UpstreamStatus != 0 {
			body["status"] = res.UpstreamStatus
		}
		s.writeJSON(w, http.StatusOK, body)
		return
	}
	s.writeOK(w, map[string]any{
		"ready": true,
		"to":    res.To,
		"data":  res.Data,
		"value": res.Value,
	})
}
