package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type AdminService interface {
	StatsOverview(ctx context.Context) (*domain.StatsOverview, error)
	RecentOrders(ctx context.Context, limit int) ([]domain.RecentOrder, error)
	TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error)
	LowStockProducts(ctx context.Context, threshold int) ([]domain.LowStockProduct, error)
	TotalProducts(ctx context.Context) (int, error)
	AllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	OrderNotes(ctx context.Context, orderID string) ([]domain.OrderNote, error)
	AddOrderNote(ctx context.Context, orderID, note string) (*domain.OrderNote, error)
}

type UserDirectory interface {
	All(ctx context.Context) ([]domain.UserWithRoles, error)
	Get(ctx context.Context, userID string) (*domain.UserWithRoles, error)
	Roles(ctx context.Context) ([]domain.Role, error)
	UserRoles(ctx context.Context, userID string) ([]domain.Role, error)
	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.UserWithRoles, error)
	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	Activate(ctx context.Context, userID string) error
	Deactivate(ctx context.Context, userID string) error
}

type AdminHandler struct {
	admin   AdminService
	users   UserDirectory
	timeout time.Duration
}

func NewAdminHandler(admin AdminService, users UserDirectory, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		admin:   admin,
		users:   users,
		timeout: timeout,
	}
}

// DashboardDTO aggregates everything the admin dashboard shows.
type DashboardDTO struct {
	Overview         *domain.StatsOverview    `json:"overview"`
	RecentOrders     []domain.RecentOrder     `json:"recentOrders"`
	TopProducts      []domain.TopProduct      `json:"topProducts"`
	LowStockProducts []domain.LowStockProduct `json:"lowStockProducts"`
	TotalProducts    int                      `json:"totalProducts"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func intParam(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit, ok := intParam(r, "limit", 5)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return
	}
	threshold, ok := intParam(r, "threshold", 10)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_threshold", "threshold must be a positive integer")
		return
	}

	var dto DashboardDTO
	var err error
	if dto.Overview, err = h.admin.StatsOverview(ctx); err != nil {
		handleError(w, err)
		return
	}
	if dto.RecentOrders, err = h.admin.RecentOrders(ctx, limit); err != nil {
		handleError(w, err)
		return
	}
	if dto.TopProducts, err = h.admin.TopProducts(ctx, limit); err != nil {
		handleError(w, err)
		return
	}
	if dto.LowStockProducts, err = h.admin.LowStockProducts(ctx, threshold); err != nil {
		handleError(w, err)
		return
	}
	if dto.TotalProducts, err = h.admin.TotalProducts(ctx); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, pageSize, ok := parsePaging(w, r)
	if !ok {
		return
	}

	filter := domain.OrderFilter{
		SearchTerm: strings.TrimSpace(r.URL.Query().Get("search")),
		Page:       page,
		PageSize:   pageSize,
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.ParseOrderStatus(v)
		if status == domain.OrderStatusUnknown {
			respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
			return
		}
		filter.Status = &status
	}

	orders, err := h.admin.AllOrders(ctx, filter)
	if err != nil {
		handleError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	status := domain.ParseOrderStatus(req.Status)
	if status == domain.OrderStatusUnknown {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	if err := h.admin.UpdateOrderStatus(ctx, chi.URLParam(r, "id"), status); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	notes, err := h.admin.OrderNotes(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.OrderNote{}
	}
	respondJSON(w, http.StatusOK, notes)
}

func (h *AdminHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.AddOrderNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Note) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "note must not be empty")
		return
	}

	note, err := h.admin.AddOrderNote(ctx, chi.URLParam(r, "id"), req.Note)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	users, err := h.users.All(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.users.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		return
	}

	user, err := h.users.Create(ctx, req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	roles, err := h.users.Roles(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

func (h *AdminHandler) UserRoles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	roles, err := h.users.UserRoles(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.AssignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RoleID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "roleId is required")
		return
	}

	if err := h.users.AssignRole(ctx, chi.URLParam(r, "id"), req.RoleID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.users.RemoveRole(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "roleId")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		id := chi.URLParam(r, "id")
		var err error
		if active {
			err = h.users.Activate(ctx, id)
		} else {
			err = h.users.Deactivate(ctx, id)
		}
		if err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
