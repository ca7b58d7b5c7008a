package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/audit"
	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/store"
	"github.com/NickLinnik/LocalLibrary/internal/validation"
)

// Transactor runs fn in a store transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MutationCounter observes committed changes. *metrics.Metrics implements it.
type MutationCounter interface {
	Mutation(model, operation string)
}

// Descriptor tells a Resource how to handle one entity kind: T is the
// entity, F its form and K its key.
type Descriptor[T any, F any, K comparable] struct {
	Kind       domain.Kind
	PageSize   int
	Permission domain.Permission
	// UniqueField names the form field blamed when the store reports a
	// uniqueness violation. Empty means a form-wide error.
	UniqueField string

	Key    func(*T) K
	Get    func(ctx context.Context, key K) (*T, error)
	List   func(ctx context.Context, params store.ListParams, page store.Page) ([]T, int, error)
	Create func(ctx context.Context, v *T) error
	Update func(ctx context.Context, v *T) error
	Delete func(ctx context.Context, key K) error

	// Build turns a validated form into an entity. existing is nil on create.
	Build func(form F, existing *T) (*T, error)
	// Check runs rules that need the built entity or the store.
	Check func(ctx context.Context, v *T) error
	// AfterCommit runs once the change is durable. v is nil for deletes.
	AfterCommit func(ctx context.Context, op domain.Operation, key K, v *T)
	// BeforeDelete runs ahead of a delete, while the rows pointing at key
	// can still be found. The returned func, if any, runs after commit.
	BeforeDelete func(ctx context.Context, key K) (func(ctx context.Context), error)
}

// Resource is the CRUD service for one entity kind. Every mutation goes
// through mutate, which authorizes, opens a transaction and audits.
type Resource[T any, F any, K comparable] struct {
	d         Descriptor[T, F, K]
	tx        Transactor
	audit     *audit.Recorder
	validator *validation.Validator
	counter   MutationCounter
	logger    *slog.Logger
	now       func() time.Time
}

// ResourceDeps are the collaborators every Resource shares.
type ResourceDeps struct {
	Tx        Transactor
	Audit     *audit.Recorder
	Validator *validation.Validator
	Counter   MutationCounter
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewResource creates a Resource for descriptor d.
func NewResource[T any, F any, K comparable](d Descriptor[T, F, K], deps ResourceDeps) *Resource[T, F, K] {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	return &Resource[T, F, K]{
		d:         d,
		tx:        deps.Tx,
		audit:     deps.Audit,
		validator: deps.Validator,
		counter:   deps.Counter,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// Kind returns the entity kind this resource serves.
func (r *Resource[T, F, K]) Kind() domain.Kind { return r.d.Kind }

// PageSize returns the fixed list page size.
func (r *Resource[T, F, K]) PageSize() int { return r.d.PageSize }

// List returns page number of the filtered list.
func (r *Resource[T, F, K]) List(ctx context.Context, params store.ListParams, number int) (store.PageResult[T], error) {
	page := store.Page{Number: number, Size: r.d.PageSize}.Normalize()
	items, total, err := r.d.List(ctx, params, page)
	if err != nil {
		return store.PageResult[T]{}, fmt.Errorf("list %s: %w", r.d.Kind, err)
	}
	return store.NewPageResult(items, page, total), nil
}

// Get returns one entity or a NotFound error.
func (r *Resource[T, F, K]) Get(ctx context.Context, key K) (*T, error) {
	v, err := r.d.Get(ctx, key)
	if err != nil {
		return nil, r.translate(err)
	}
	return v, nil
}

// Authorize fails with Forbidden unless actor may change this kind.
func (r *Resource[T, F, K]) Authorize(actor *domain.User) error {
	if !actor.Has(r.d.Permission) {
		return domainerrors.Forbiddenf("you do not have permission to change %s records", r.d.Kind)
	}
	return nil
}

// Create validates form, persists the entity and records a Create log row.
func (r *Resource[T, F, K]) Create(ctx context.Context, actor *domain.User, form F) (*T, error) {
	if err := r.Authorize(actor); err != nil {
		return nil, err
	}
	v, err := r.prepare(ctx, form, nil)
	if err != nil {
		return nil, err
	}

	err = r.mutate(ctx, actor, domain.OpCreate, func(ctx context.Context) error {
		return r.d.Create(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	r.committed(ctx, actor, domain.OpCreate, r.d.Key(v), v)
	return v, nil
}

// Update validates form against the current row, persists it and records
// an Update log row.
func (r *Resource[T, F, K]) Update(ctx context.Context, actor *domain.User, key K, form F) (*T, error) {
	if err := r.Authorize(actor); err != nil {
		return nil, err
	}
	existing, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	v, err := r.prepare(ctx, form, existing)
	if err != nil {
		return nil, err
	}

	err = r.mutate(ctx, actor, domain.OpUpdate, func(ctx context.Context) error {
		return r.d.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	r.committed(ctx, actor, domain.OpUpdate, key, v)
	return v, nil
}

// Delete records a Delete log row and removes the entity. Rows still
// referenced under the restrict policy fail with Referenced.
func (r *Resource[T, F, K]) Delete(ctx context.Context, actor *domain.User, key K) error {
	if err := r.Authorize(actor); err != nil {
		return err
	}
	if _, err := r.Get(ctx, key); err != nil {
		return err
	}

	var after func(ctx context.Context)
	if r.d.BeforeDelete != nil {
		var err error
		if after, err = r.d.BeforeDelete(ctx, key); err != nil {
			return err
		}
	}

	err := r.mutate(ctx, actor, domain.OpDelete, func(ctx context.Context) error {
		return r.d.Delete(ctx, key)
	})
	if err != nil {
		return err
	}
	r.committed(ctx, actor, domain.OpDelete, key, nil)
	if after != nil {
		after(ctx)
	}
	return nil
}

// Change runs fn as an audited Update of this kind. Loan actions and
// maintenance tasks use it for changes that are not form edits.
func (r *Resource[T, F, K]) Change(ctx context.Context, actor *domain.User, key K, fn func(ctx context.Context) error) error {
	if err := r.Authorize(actor); err != nil {
		return err
	}
	if err := r.mutate(ctx, actor, domain.OpUpdate, fn); err != nil {
		return err
	}
	r.committed(ctx, actor, domain.OpUpdate, key, nil)
	return nil
}

func (r *Resource[T, F, K]) prepare(ctx context.Context, form F, existing *T) (*T, error) {
	if err := r.validator.Validate(form); err != nil {
		return nil, err
	}
	v, err := r.d.Build(form, existing)
	if err != nil {
		return nil, err
	}
	if r.d.Check != nil {
		if err := r.d.Check(ctx, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// mutate is the single write path: one transaction holding the change and
// its audit row. Deletes are logged before the row goes away.
func (r *Resource[T, F, K]) mutate(ctx context.Context, actor *domain.User, op domain.Operation, fn func(ctx context.Context) error) error {
	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		record := func() error {
			return r.audit.Record(ctx, r.d.Kind, actor.ID, op, r.now())
		}
		if op == domain.OpDelete {
			if err := record(); err != nil {
				return err
			}
			return fn(ctx)
		}
		if err := fn(ctx); err != nil {
			return err
		}
		return record()
	})
	if err != nil {
		return r.translate(err)
	}
	return nil
}

func (r *Resource[T, F, K]) committed(ctx context.Context, actor *domain.User, op domain.Operation, key K, v *T) {
	if r.counter != nil {
		r.counter.Mutation(string(r.d.Kind), string(op))
	}
	r.logger.Info("catalog changed", "kind", r.d.Kind, "operation", op, "id", key, "user_id", actor.ID)
	if r.d.AfterCommit != nil {
		r.d.AfterCommit(ctx, op, key, v)
	}
}

// translate maps store errors onto domain errors. Domain errors pass through.
func (r *Resource[T, F, K]) translate(err error) error {
	var de *domainerrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", r.d.Kind).WithCause(err)
	case errors.Is(err, store.ErrReferenced):
		return domainerrors.Referencedf("%s is still referenced by other records", r.d.Kind).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.FieldInvalid(r.d.UniqueField, "already in use").WithCause(err)
	case errors.Is(err, store.ErrInvalidReference):
		return domainerrors.Validation("Select a valid choice. That choice is not one of the available choices.").WithCause(err)
	default:
		return err
	}
}
