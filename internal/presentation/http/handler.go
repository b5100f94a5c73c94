package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	appcatalog "github.com/Zhima-Mochi/library-lending/internal/application/catalog"
	applending "github.com/Zhima-Mochi/library-lending/internal/application/lending"
	apppayment "github.com/Zhima-Mochi/library-lending/internal/application/payment"
	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
	"github.com/Zhima-Mochi/library-lending/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const componentHTTPHandler = "http_server"

type Handler struct {
	catalog *appcatalog.Service
	lending *applending.Service
	payment *apppayment.Orchestrator

	log observability.Logger
	tel observability.Telemetry
}

func NewHandler(catalogSvc *appcatalog.Service, lendingSvc *applending.Service, paymentSvc *apppayment.Orchestrator,
	tel observability.Telemetry,
) *Handler {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Handler{
		catalog: catalogSvc,
		lending: lendingSvc,
		payment: paymentSvc,
		log:     tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:     tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	h.handle(api, http.MethodPost, "/books", h.handleAddBook)
	h.handle(api, http.MethodGet, "/books/search", h.handleSearch)
	h.handle(api, http.MethodPost, "/loans", h.handleBorrow)
	h.handle(api, http.MethodPost, "/returns", h.handleReturn)
	h.handle(api, http.MethodGet, "/patrons/{patron_id}/fees/{book_id}", h.handleQuote)
	h.handle(api, http.MethodGet, "/patrons/{patron_id}/report", h.handleReport)
	h.handle(api, http.MethodPost, "/fees/pay", h.handlePayLateFees)
	h.handle(api, http.MethodPost, "/fees/refund", h.handleRefund)
	h.handle(api, http.MethodGet, "/payments/{transaction_id}", h.handleVerify)

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	return r
}

// handle wires a route with the middleware chain:
// trace -> request logger -> metrics -> access log -> handler.
func (h *Handler) handle(r *mux.Router, method, route string, fn http.HandlerFunc) {
	wrapped := h.withTrace(route,
		h.withRequestLogger(route,
			h.withHTTPMetrics(route,
				h.withAccessLog(route, fn))))
	r.Handle(route, wrapped).Methods(method)
}

type addBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

type resultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := h.catalog.AddBook(r.Context(), req.Title, req.Author, req.ISBN, req.TotalCopies)
	writeJSON(w, statusFor(res.OK, http.StatusCreated), resultResponse{Success: res.OK, Message: res.Message})
}

type bookResponse struct {
	ID              int64  `json:"id"`
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	kind := appcatalog.SearchKind(r.URL.Query().Get("type"))

	books := h.catalog.Search(r.Context(), q, kind)
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, bookResponse{
			ID:              b.ID,
			ISBN:            b.ISBN,
			Title:           b.Title,
			Author:          b.Author,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.AvailableCopies,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type loanRequest struct {
	PatronID string `json:"patron_id"`
	BookID   int64  `json:"book_id"`
}

type borrowResponse struct {
	resultResponse
	DueDate string `json:"due_date,omitempty"`
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := h.lending.Borrow(r.Context(), req.PatronID, req.BookID)
	resp := borrowResponse{resultResponse: resultResponse{Success: res.OK, Message: res.Message}}
	if res.OK {
		resp.DueDate = res.DueDate.Format("2006-01-02")
	}
	writeJSON(w, statusFor(res.OK, http.StatusOK), resp)
}

type returnResponse struct {
	resultResponse
	DaysOverdue int     `json:"days_overdue"`
	LateFee     float64 `json:"late_fee"`
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := h.lending.Return(r.Context(), req.PatronID, req.BookID)
	writeJSON(w, statusFor(res.OK, http.StatusOK), returnResponse{
		resultResponse: resultResponse{Success: res.OK, Message: res.Message},
		DaysOverdue:    res.DaysOverdue,
		LateFee:        res.Fee.Dollars(),
	})
}

type feeQuoteResponse struct {
	FeeAmount   float64 `json:"fee_amount"`
	DaysOverdue int     `json:"days_overdue"`
	Status      string  `json:"status"`
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookID, err := strconv.ParseInt(vars["book_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := h.lending.QuoteLateFee(r.Context(), vars["patron_id"], bookID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to calculate late fee"})
		return
	}
	writeJSON(w, http.StatusOK, feeQuoteResponse{
		FeeAmount:   quote.FeeAmount.Dollars(),
		DaysOverdue: quote.DaysOverdue,
		Status:      quote.Status,
	})
}

type loanResponse struct {
	BookID      int64   `json:"book_id"`
	Title       string  `json:"title"`
	DueDate     string  `json:"due_date"`
	DaysOverdue int     `json:"days_overdue"`
	LateFee     float64 `json:"late_fee"`
}

type historyResponse struct {
	BookID     int64  `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
}

type reportResponse struct {
	PatronID             string            `json:"patron_id"`
	Status               string            `json:"status"`
	NumCurrentlyBorrowed int               `json:"num_currently_borrowed"`
	TotalLateFeesOwed    float64           `json:"total_late_fees_owed"`
	CurrentlyBorrowed    []loanResponse    `json:"currently_borrowed"`
	History              []historyResponse `json:"history"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report := h.lending.StatusReport(r.Context(), mux.Vars(r)["patron_id"])

	resp := reportResponse{
		PatronID:             report.PatronID,
		Status:               report.Status,
		NumCurrentlyBorrowed: report.NumCurrentlyBorrowed,
		TotalLateFeesOwed:    report.TotalFeesOwed.Dollars(),
		CurrentlyBorrowed:    make([]loanResponse, 0, len(report.CurrentlyBorrowed)),
		History:              make([]historyResponse, 0, len(report.History)),
	}
	for _, l := range report.CurrentlyBorrowed {
		resp.CurrentlyBorrowed = append(resp.CurrentlyBorrowed, loanResponse{
			BookID:      l.BookID,
			Title:       l.Title,
			DueDate:     l.DueDate.Format("2006-01-02"),
			DaysOverdue: l.DaysOverdue,
			LateFee:     l.LateFee.Dollars(),
		})
	}
	for _, rec := range report.History {
		entry := historyResponse{
			BookID:     rec.BookID,
			BorrowDate: rec.BorrowDate.Format(time.RFC3339),
			DueDate:    rec.DueDate.Format(time.RFC3339),
		}
		if !rec.Active() {
			entry.ReturnDate = rec.ReturnDate.Format(time.RFC3339)
		}
		resp.History = append(resp.History, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

type payFeesResponse struct {
	resultResponse
	TransactionID string `json:"transaction_id,omitempty"`
}

func (h *Handler) handlePayLateFees(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := h.payment.PayLateFees(r.Context(), req.PatronID, req.BookID)
	writeJSON(w, statusFor(res.OK, http.StatusOK), payFeesResponse{
		resultResponse: resultResponse{Success: res.OK, Message: res.Message},
		TransactionID:  res.TransactionID,
	})
}

type refundRequest struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := h.payment.RefundLateFeePayment(r.Context(), req.TransactionID, money.FromDollars(req.Amount))
	writeJSON(w, statusFor(res.OK, http.StatusOK), resultResponse{Success: res.OK, Message: res.Message})
}

type verifyResponse struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Timestamp     int64   `json:"timestamp"`
	Message       string  `json:"message"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	v := h.payment.VerifyPayment(r.Context(), mux.Vars(r)["transaction_id"])
	writeJSON(w, http.StatusOK, verifyResponse{
		TransactionID: v.TransactionID,
		Status:        string(v.Status),
		Amount:        v.Amount.Dollars(),
		Timestamp:     v.Timestamp,
		Message:       v.Message,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusFor maps rejected operations to 422; the operations themselves are
// total and always produce a result body.
func statusFor(ok bool, success int) int {
	if ok {
		return success
	}
	return http.StatusUnprocessableEntity
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
