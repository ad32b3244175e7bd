package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sitereports/internal/middleware"
	"sitereports/internal/service"
	"sitereports/internal/store"
	"sitereports/internal/util"
)

const maxBodyBytes = 64 << 10

// readFields pulls the named string fields from a JSON or form-encoded
// body. Absent fields come back empty; an empty body is not an error.
func readFields(r *http.Request, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		for _, n := range names {
			out[n] = r.PostFormValue(n)
		}
		return out, nil
	}
	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for _, n := range names {
		switch v := raw[n].(type) {
		case string:
			out[n] = v
		case nil:
		default:
			out[n] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func (h *Handlers) reqID(r *http.Request) string {
	return middleware.RequestID(r.Context())
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(r, "name", "email", "password")
	if err != nil {
		util.WriteError(w, 400, "invalid request body", h.reqID(r))
		return
	}
	u, err := h.svc.Register(r.Context(), f["name"], f["email"], f["password"])
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr), errors.Is(err, store.ErrDuplicate):
			util.WriteError(w, 400, err.Error(), h.reqID(r))
		default:
			h.internalError(w, r, "register", err)
		}
		return
	}
	util.WriteJSON(w, 201, util.Result{Success: true, ID: u.ID})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(r, "email", "password")
	if err != nil {
		util.WriteError(w, 400, "invalid request body", h.reqID(r))
		return
	}
	token, _, err := h.svc.Login(r.Context(), f["email"], f["password"])
	h.finishLogin(w, r, token, err)
}

func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(r, "username", "password")
	if err != nil {
		util.WriteError(w, 400, "invalid request body", h.reqID(r))
		return
	}
	token, _, err := h.svc.AdminLogin(r.Context(), f["username"], f["password"])
	h.finishLogin(w, r, token, err)
}

// finishLogin reports credential failures as success:false with a 200, not
// as an HTTP error.
func (h *Handlers) finishLogin(w http.ResponseWriter, r *http.Request, token string, err error) {
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			util.WriteError(w, 400, err.Error(), h.reqID(r))
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrWrongPassword):
			util.WriteJSON(w, 200, util.Result{Success: false, Message: h.loginFailureMessage(err)})
		default:
			h.internalError(w, r, "login", err)
		}
		return
	}
	h.setSessionCookie(w, token)
	util.WriteJSON(w, 200, util.Result{Success: true})
}

func (h *Handlers) loginFailureMessage(err error) string {
	if h.cfg.LoginGenericErrors {
		return "Invalid credentials"
	}
	if errors.Is(err, service.ErrUserNotFound) {
		return "User not found"
	}
	return "Wrong password"
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cfg.SessionCookieName); err == nil && c.Value != "" {
		if err := h.svc.Logout(r.Context(), c.Value); err != nil {
			h.internalError(w, r, "logout", err)
			return
		}
	}
	h.clearSessionCookie(w)
	util.WriteJSON(w, 200, util.Result{Success: true})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(h.cfg.SessionCookieName)
	if err != nil || c.Value == "" {
		util.WriteError(w, 401, "authentication required", h.reqID(r))
		return
	}
	sess, err := h.svc.ValidateSession(r.Context(), c.Value)
	if err != nil {
		util.WriteError(w, 401, "invalid session", h.reqID(r))
		return
	}
	util.WriteJSON(w, 200, map[string]any{"id": sess.Identity.ID, "name": sess.Identity.Name, "role": sess.Role})
}

func (h *Handlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.Session(r.Context())
	f, err := readFields(r, "site", "note")
	if err != nil {
		util.WriteError(w, 400, "invalid request body", h.reqID(r))
		return
	}
	rep, err := h.svc.CreateReport(r.Context(), sess, f["site"], f["note"])
	if err != nil {
		h.writeReportError(w, r, "create_report", err)
		return
	}
	util.WriteJSON(w, 201, util.Result{Success: true, ID: rep.ID})
}

func (h *Handlers) MyReports(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.Session(r.Context())
	items, err := h.svc.MyReports(r.Context(), sess)
	if err != nil {
		h.writeReportError(w, r, "my_reports", err)
		return
	}
	util.WriteJSON(w, 200, items)
}

func (h *Handlers) AdminListReports(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.Session(r.Context())
	items, err := h.svc.AllReports(r.Context(), sess)
	if err != nil {
		h.writeReportError(w, r, "list_reports", err)
		return
	}
	util.WriteJSON(w, 200, items)
}

func (h *Handlers) AdminUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.Session(r.Context())
	f, err := readFields(r, "status")
	if err != nil {
		util.WriteError(w, 400, "invalid request body", h.reqID(r))
		return
	}
	if err := h.svc.UpdateReportStatus(r.Context(), sess, chi.URLParam(r, "id"), strings.TrimSpace(f["status"])); err != nil {
		h.writeReportError(w, r, "update_status", err)
		return
	}
	util.WriteJSON(w, 200, util.Result{Success: true})
}

func (h *Handlers) AdminDeleteReport(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.Session(r.Context())
	if err := h.svc.DeleteReport(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		h.writeReportError(w, r, "delete_report", err)
		return
	}
	util.WriteJSON(w, 200, util.Result{Success: true})
}

func (h *Handlers) writeReportError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, store.ErrMissingField):
		util.WriteError(w, 400, err.Error(), h.reqID(r))
	case errors.Is(err, store.ErrNotFound):
		util.WriteError(w, 404, "report not found", h.reqID(r))
	case errors.Is(err, service.ErrForbidden):
		util.WriteError(w, 403, "forbidden", h.reqID(r))
	default:
		h.internalError(w, r, op, err)
	}
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("%s_failed request_id=%s err=%q", op, h.reqID(r), err.Error())
	util.WriteError(w, 500, err.Error(), h.reqID(r))
}
