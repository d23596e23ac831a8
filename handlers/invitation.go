package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/services"
)

// InvitationHandler, davet endpoint'lerini yönetir.
//
// Yazma işlemleri (create/approve/cancel/reactivate/delete) service'e,
// okuma işlemleri query'ye gider. Reddedilen durum geçişlerinde service
// kaydın güncel halini de döner; onu response'un data alanına koyarız
// ki istemci reddin sebebini gösterebilsin.
type InvitationHandler struct {
	invitationService services.InvitationService
	invitationQuery   services.InvitationQuery
	listAllRoles      []models.Role
}

// NewInvitationHandler, constructor.
func NewInvitationHandler(
	invitationService services.InvitationService,
	invitationQuery services.InvitationQuery,
	listAllRoles []models.Role,
) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		invitationQuery:   invitationQuery,
		listAllRoles:      listAllRoles,
	}
}

// Create, POST /api/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invitationService.Create(r.Context(), actor, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, inv)
}

// List, GET /api/invitations
//
// Rol bazlı kapsam: personel tüm defteri görür, anfitrion sadece
// kendi davetlerini.
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var (
		invitations []models.Invitation
		err         error
	)
	if h.canListAll(actor) {
		invitations, err = h.invitationQuery.ListAll(r.Context())
	} else {
		invitations, err = h.invitationQuery.ListByHost(r.Context(), actor.ID)
	}
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, invitations)
}

// Get, GET /api/invitations/{code}
//
// Kapıdaki doğrulama ekranı bu endpoint'i kullanır. Personel her kaydı
// görebilir; bir anfitrion sadece kendi kaydını.
func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	code := r.PathValue("code")
	inv, err := h.invitationQuery.FindByCode(r.Context(), code)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if !actor.Role.IsStaff() && inv.Host.ID != actor.ID {
		pkg.Error(w, fmt.Errorf("%w: not your invitation", pkg.ErrForbidden))
		return
	}

	pkg.JSON(w, http.StatusOK, inv)
}

// Approve, POST /api/invitations/{code}/approve
func (h *InvitationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	inv, err := h.invitationService.Approve(r.Context(), actor, r.PathValue("code"))
	if err != nil {
		h.rejection(w, err, inv)
		return
	}

	pkg.JSON(w, http.StatusOK, inv)
}

// Cancel, POST /api/invitations/{code}/cancel
func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	inv, err := h.invitationService.Cancel(r.Context(), actor, r.PathValue("code"))
	if err != nil {
		h.rejection(w, err, inv)
		return
	}

	pkg.JSON(w, http.StatusOK, inv)
}

// Reactivate, POST /api/invitations/{code}/reactivate
func (h *InvitationHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ReactivateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	inv, err := h.invitationService.Reactivate(r.Context(), actor, r.PathValue("code"), &req)
	if err != nil {
		h.rejection(w, err, inv)
		return
	}

	pkg.JSON(w, http.StatusOK, inv)
}

// Delete, DELETE /api/invitations/{code}
func (h *InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.invitationService.Delete(r.Context(), actor, r.PathValue("code")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "invitation deleted"})
}

// rejection, reddedilen bir durum geçişini yazar. Service geçersiz
// geçişlerde kaydın güncel halini de döndürür; varsa ekleriz.
func (h *InvitationHandler) rejection(w http.ResponseWriter, err error, inv *models.Invitation) {
	if inv != nil {
		pkg.ErrorWithData(w, err, inv)
		return
	}
	pkg.Error(w, err)
}

func (h *InvitationHandler) canListAll(actor *models.User) bool {
	for _, role := range h.listAllRoles {
		if actor.Role == role {
			return true
		}
	}
	return false
}
