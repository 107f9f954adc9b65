package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/notify"
	"github.com/ArionMiles/paysms/pkg/review"
)

const dateLayout = "2006-01-02"

// draftFlags are the editable fields shared by accept, add and edit.
type draftFlags struct {
	fs       *flag.FlagSet
	amount   *string
	merchant *string
	category *string
	notes    *string
	date     *string
}

func newDraftFlags(name string) *draftFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &draftFlags{
		fs:       fs,
		amount:   fs.String("amount", "", "amount, e.g. 1250.50"),
		merchant: fs.String("merchant", "", "merchant name"),
		category: fs.String("category", "", "category, e.g. Food"),
		notes:    fs.String("notes", "", "free text notes"),
		date:     fs.String("date", "", "transaction date (YYYY-MM-DD)"),
	}
}

// apply overwrites the draft fields whose flags were set.
func (f *draftFlags) apply(d *review.Draft, loc *time.Location) error {
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "amount":
			var amount decimal.Decimal
			amount, err = decimal.NewFromString(strings.ReplaceAll(*f.amount, ",", ""))
			if err != nil {
				err = fmt.Errorf("parsing -amount: %w", err)
				return
			}
			d.Amount = amount
		case "merchant":
			d.Merchant = *f.merchant
		case "category":
			d.Category = *f.category
		case "notes":
			d.Notes = *f.notes
		case "date":
			var t time.Time
			t, err = time.ParseInLocation(dateLayout, *f.date, loc)
			if err != nil {
				err = fmt.Errorf("parsing -date: %w", err)
				return
			}
			d.OccurredAt = t
		}
	})
	return err
}

func (a *app) save(ctx context.Context, store api.Store, d review.Draft) (api.Record, error) {
	r, err := a.reviewService(store).Save(ctx, d)
	var verr *review.ValidationError
	if errors.As(err, &verr) {
		return api.Record{}, fmt.Errorf("invalid transaction: %w (suggested categories: %s)",
			verr, strings.Join(a.reviewService(store).Categories(), ", "))
	}
	return r, err
}

// runInbox lists pending candidates.
func runInbox(a *app, args []string) error {
	fs := flag.NewFlagSet("inbox", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	box, err := a.openInbox()
	if err != nil {
		return err
	}
	pending, err := box.List(context.Background())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("No transactions waiting for review.")
		return nil
	}

	for _, p := range pending {
		fmt.Printf("%s  %s\n", p.ID, notify.Text(p, a.loc))
	}
	return nil
}

// runAccept saves an inbox candidate and removes it from the inbox.
func runAccept(a *app, args []string) error {
	f := newDraftFlags("accept")
	id := f.fs.String("id", "", "inbox payload id")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	ctx := context.Background()
	box, err := a.openInbox()
	if err != nil {
		return err
	}
	p, err := box.Get(ctx, *id)
	if err != nil {
		return err
	}

	d := review.DraftFromPayload(p)
	if err := f.apply(&d, a.loc); err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := a.save(ctx, store, d)
	if err != nil {
		return err
	}
	if err := box.Remove(ctx, *id); err != nil {
		a.logger.Warn("saved transaction but could not remove inbox entry", "id", *id, "error", err)
	}

	fmt.Printf("Saved transaction %d.\n", r.ID)
	return nil
}

// runAdd stores a manually entered transaction.
func runAdd(a *app, args []string) error {
	f := newDraftFlags("add")
	if err := f.fs.Parse(args); err != nil {
		return err
	}

	d := review.Draft{OccurredAt: time.Now().In(a.loc)}
	if err := f.apply(&d, a.loc); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := a.save(ctx, store, d)
	if err != nil {
		return err
	}
	fmt.Printf("Saved transaction %d.\n", r.ID)
	return nil
}

// runEdit replaces fields of a stored transaction.
func runEdit(a *app, args []string) error {
	f := newDraftFlags("edit")
	id := f.fs.Int64("id", 0, "transaction id")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("-id is required")
	}

	ctx := context.Background()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	d, err := a.reviewService(store).Load(ctx, *id)
	if err != nil {
		return err
	}
	if err := f.apply(&d, a.loc); err != nil {
		return err
	}

	if _, err := a.save(ctx, store, d); err != nil {
		return err
	}
	fmt.Printf("Updated transaction %d.\n", *id)
	return nil
}

// runDelete removes a stored transaction after confirmation.
func runDelete(a *app, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.Int64("id", 0, "transaction id")
	yes := fs.Bool("y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("-id is required")
	}

	ctx := context.Background()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := a.reviewService(store)
	d, err := svc.Load(ctx, *id)
	if err != nil {
		return err
	}

	if !*yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete %s at %s (%s)? [y/N] ",
		d.Amount.StringFixed(2), d.Merchant, d.Category)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := svc.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Transaction deleted.")
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// runList prints stored transactions, most recent first.
func runList(a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	category := fs.String("category", "", "only show this category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []api.Record
	if *category != "" {
		records, err = store.ListByCategory(ctx, *category)
	} else {
		records, err = store.ListAll(ctx)
	}
	if err != nil {
		return err
	}

	writeRecords(os.Stdout, records, a.loc)
	return nil
}

func writeRecords(out io.Writer, records []api.Record, loc *time.Location) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No transactions.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tMERCHANT\tCATEGORY\tNOTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.OccurredAt.In(loc).Format(dateLayout), r.Amount.StringFixed(2), r.Merchant, r.Category, r.Notes)
	}
	tw.Flush()
}
