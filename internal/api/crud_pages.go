package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/service"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// listItem is one row of list.html.
type listItem struct {
	URL     string
	Text    string
	Extra   string
	Overdue bool
}

// listPage is the content of list.html.
type listPage struct {
	Heading   string
	Items     []listItem
	Empty     string
	Pager     pager
	Query     string
	CreateURL string
	// Author lists also filter by birth date.
	DateFilter bool
	Date1      string
	Date2      string
}

// confirmPage is the content of confirm_delete.html.
type confirmPage struct {
	Kind   string
	Label  string
	Action string
	Cancel string
	Error  string
}

// crudPages serves the list, detail, create, update and delete pages of
// one catalog resource.
type crudPages[T any, F any, K comparable] struct {
	s        *Server
	res      *service.Resource[T, F, K]
	singular string // URL segment of one item, e.g. "book"
	plural   string // URL segment of the list, e.g. "books"
	label    string
	empty    string

	parseKey func(string) (K, error)
	keyOf    func(*T) K
	row      func(*T) listItem
	formOf   func(*T) F
	fields   func(ctx context.Context, f F) ([]formField, error)

	detailPage string
	detail     func(ctx context.Context, key K) (any, error)

	// listParams adds resource specific filters to the list query.
	listParams func(r *http.Request, params *store.ListParams, page *listPage)
}

func (p *crudPages[T, F, K]) mount(r chi.Router) {
	r.Get("/"+p.plural, p.list)
	r.Get("/"+p.singular+"/create", p.createForm)
	r.Post("/"+p.singular+"/create", p.create)
	r.Get("/"+p.singular+"/{id}", p.show)
	r.Get("/"+p.singular+"/{id}/update", p.updateForm)
	r.Post("/"+p.singular+"/{id}/update", p.update)
	r.Get("/"+p.singular+"/{id}/delete", p.confirmDelete)
	r.Post("/"+p.singular+"/{id}/delete", p.delete)
}

func (p *crudPages[T, F, K]) itemURL(key K) string {
	return fmt.Sprintf("/%s/%v", p.singular, key)
}

func (p *crudPages[T, F, K]) listURL() string {
	return "/" + p.plural
}

// key parses the {id} URL parameter. Malformed ids are treated as missing.
func (p *crudPages[T, F, K]) key(r *http.Request) (K, error) {
	k, err := p.parseKey(chi.URLParam(r, "id"))
	if err != nil {
		var zero K
		return zero, domainerrors.NotFoundf("%s not found", strings.ToLower(p.label))
	}
	return k, nil
}

func (p *crudPages[T, F, K]) list(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	params := store.ListParams{Query: q}
	page := listPage{
		Heading:   p.label + " List",
		Empty:     p.empty,
		Query:     q,
		CreateURL: "/" + p.singular + "/create",
	}
	if p.listParams != nil {
		p.listParams(r, &params, &page)
	}

	res, err := p.res.List(r.Context(), params, pageNumber(r))
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}

	page.Items = make([]listItem, 0, len(res.Items))
	for i := range res.Items {
		page.Items = append(page.Items, p.row(&res.Items[i]))
	}
	page.Pager = newPager(res, r)

	p.s.render(w, r, http.StatusOK, "list.html", page.Heading, page)
}

func (p *crudPages[T, F, K]) show(w http.ResponseWriter, r *http.Request) {
	key, err := p.key(r)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	content, err := p.detail(r.Context(), key)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	p.s.render(w, r, http.StatusOK, p.detailPage, p.label, content)
}

func (p *crudPages[T, F, K]) createForm(w http.ResponseWriter, r *http.Request) {
	if err := p.res.Authorize(currentUser(r.Context())); err != nil {
		p.s.renderError(w, r, err)
		return
	}
	var form F
	p.renderForm(w, r, http.StatusOK, "Create "+p.label, "/"+p.singular+"/create", p.listURL(), form, nil)
}

func (p *crudPages[T, F, K]) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(ctx)
	if err := p.res.Authorize(user); err != nil {
		p.s.renderError(w, r, err)
		return
	}

	action := "/" + p.singular + "/create"
	form, errs := p.decode(r)
	if errs != nil {
		p.renderForm(w, r, http.StatusUnprocessableEntity, "Create "+p.label, action, p.listURL(), form, errs)
		return
	}

	obj, err := p.res.Create(ctx, user, form)
	if err != nil {
		if errs := formErrors(err); errs != nil {
			p.renderForm(w, r, http.StatusUnprocessableEntity, "Create "+p.label, action, p.listURL(), form, errs)
			return
		}
		p.s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, p.itemURL(p.keyOf(obj)), http.StatusFound)
}

func (p *crudPages[T, F, K]) updateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := p.res.Authorize(currentUser(ctx)); err != nil {
		p.s.renderError(w, r, err)
		return
	}
	key, err := p.key(r)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	obj, err := p.res.Get(ctx, key)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	p.renderForm(w, r, http.StatusOK, "Update "+p.label, p.itemURL(key)+"/update", p.itemURL(key), p.formOf(obj), nil)
}

func (p *crudPages[T, F, K]) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(ctx)
	if err := p.res.Authorize(user); err != nil {
		p.s.renderError(w, r, err)
		return
	}
	key, err := p.key(r)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}

	action := p.itemURL(key) + "/update"
	form, errs := p.decode(r)
	if errs != nil {
		p.renderForm(w, r, http.StatusUnprocessableEntity, "Update "+p.label, action, p.itemURL(key), form, errs)
		return
	}

	if _, err := p.res.Update(ctx, user, key, form); err != nil {
		if errs := formErrors(err); errs != nil {
			p.renderForm(w, r, http.StatusUnprocessableEntity, "Update "+p.label, action, p.itemURL(key), form, errs)
			return
		}
		p.s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, p.itemURL(key), http.StatusFound)
}

func (p *crudPages[T, F, K]) confirmDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := p.res.Authorize(currentUser(ctx)); err != nil {
		p.s.renderError(w, r, err)
		return
	}
	key, err := p.key(r)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	obj, err := p.res.Get(ctx, key)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	p.renderConfirm(w, r, http.StatusOK, key, p.row(obj).Text, "")
}

func (p *crudPages[T, F, K]) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(ctx)
	if err := p.res.Authorize(user); err != nil {
		p.s.renderError(w, r, err)
		return
	}
	key, err := p.key(r)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}

	err = p.res.Delete(ctx, user, key)
	if domainerrors.CodeOf(err) == domainerrors.CodeReferenced {
		label := fmt.Sprint(key)
		if obj, getErr := p.res.Get(ctx, key); getErr == nil {
			label = p.row(obj).Text
		}
		p.renderConfirm(w, r, http.StatusConflict, key, label, errorMessage(err))
		return
	}
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, p.listURL(), http.StatusFound)
}

func (p *crudPages[T, F, K]) decode(r *http.Request) (F, domainerrors.FieldErrors) {
	var form F
	if err := r.ParseForm(); err != nil {
		return form, domainerrors.FieldErrors{"": "The form could not be read."}
	}
	return form, decodeForm(r.PostForm, &form)
}

func (p *crudPages[T, F, K]) renderForm(w http.ResponseWriter, r *http.Request, status int, heading, action, cancel string, form F, errs domainerrors.FieldErrors) {
	fields, err := p.fields(r.Context(), form)
	if err != nil {
		p.s.renderError(w, r, err)
		return
	}
	fields, formErr := withErrors(fields, errs)
	p.s.render(w, r, status, "form.html", heading, formPage{
		Heading: heading,
		Action:  action,
		Submit:  "Submit",
		Cancel:  cancel,
		Fields:  fields,
		Error:   formErr,
	})
}

func (p *crudPages[T, F, K]) renderConfirm(w http.ResponseWriter, r *http.Request, status int, key K, label, errMsg string) {
	p.s.render(w, r, status, "confirm_delete.html", "Delete "+p.label, confirmPage{
		Kind:   p.label,
		Label:  label,
		Action: p.itemURL(key) + "/delete",
		Cancel: p.itemURL(key),
		Error:  errMsg,
	})
}
