package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// MyLoans lists the copies the actor currently has on loan, soonest due first.
func (c *Catalog) MyLoans(ctx context.Context, actor *domain.User, number int) (store.PageResult[domain.BookInstance], error) {
	if err := requireUser(actor); err != nil {
		return store.PageResult[domain.BookInstance]{}, err
	}
	return c.loans(ctx, store.InstanceFilter{BorrowerID: actor.ID, OnLoan: true}, number)
}

// Borrowed lists every copy on loan. Staff only.
func (c *Catalog) Borrowed(ctx context.Context, actor *domain.User, number int) (store.PageResult[domain.BookInstance], error) {
	if err := requirePermission(actor, domain.PermManageLoans); err != nil {
		return store.PageResult[domain.BookInstance]{}, err
	}
	return c.loans(ctx, store.InstanceFilter{OnLoan: true}, number)
}

func (c *Catalog) loans(ctx context.Context, f store.InstanceFilter, number int) (store.PageResult[domain.BookInstance], error) {
	page := store.Page{Number: number, Size: PageSizeLoans}.Normalize()
	items, total, err := c.store.ListInstances(ctx, f, page)
	if err != nil {
		return store.PageResult[domain.BookInstance]{}, fmt.Errorf("list loans: %w", err)
	}
	return store.NewPageResult(items, page, total), nil
}

// ProposedRenewal is the date the renew form starts with.
func (c *Catalog) ProposedRenewal() time.Time {
	return domain.DefaultRenewalDate(c.Today())
}

// Renew moves a copy's due date. Only due_back changes; the date must lie
// between today and four weeks ahead, and the copy must not be on the shelf.
// The change is audited as an Update.
func (c *Catalog) Renew(ctx context.Context, actor *domain.User, instanceID string, form RenewForm) (*domain.BookInstance, error) {
	if err := c.Instances.Authorize(actor); err != nil {
		return nil, err
	}
	bi, err := c.Instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if err := c.Instances.validator.Validate(form); err != nil {
		return nil, err
	}
	candidate, err := parseFormDate(domain.RenewalField, form.RenewalDate)
	if err != nil {
		return nil, err
	}
	due, err := domain.ValidateRenewalDate(*candidate, c.Today())
	if err != nil {
		return nil, err
	}
	// A copy on the shelf has nothing to renew.
	if err := domain.ValidateInstanceConsistency(bi.Status, &due, bi.BorrowerID); err != nil {
		return nil, err
	}

	err = c.Instances.Change(ctx, actor, bi.ID, func(ctx context.Context) error {
		return c.store.UpdateDueBack(ctx, bi.ID, due)
	})
	if err != nil {
		return nil, err
	}
	bi.DueBack = &due
	return bi, nil
}

// MarkReturned puts a copy back on the shelf: no borrower, no due date and
// the Available status. Audited as an Update.
func (c *Catalog) MarkReturned(ctx context.Context, actor *domain.User, instanceID string) (*domain.BookInstance, error) {
	if err := c.Instances.Authorize(actor); err != nil {
		return nil, err
	}
	bi, err := c.Instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	available, err := c.store.StatusByKind(ctx, domain.StatusAvailable)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidState(`no "Available" status is defined`)
	}
	if err != nil {
		return nil, err
	}

	bi.BorrowerID = ""
	bi.Borrower = ""
	bi.DueBack = nil
	bi.StatusID = &available.ID
	bi.Status = available

	err = c.Instances.Change(ctx, actor, bi.ID, func(ctx context.Context) error {
		return c.store.UpdateInstance(ctx, bi)
	})
	if err != nil {
		return nil, err
	}
	return bi, nil
}
