package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

// fixture is the YAML layout read by the seed command.
type fixture struct {
	Genres    []string        `yaml:"genres"`
	Languages []string        `yaml:"languages"`
	Authors   []fixtureAuthor `yaml:"authors"`
	Books     []fixtureBook   `yaml:"books"`
}

type fixtureAuthor struct {
	// Key is how books refer to the author within the file.
	Key         string `yaml:"key"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	DateOfBirth string `yaml:"date_of_birth"`
	DateOfDeath string `yaml:"date_of_death"`
}

type fixtureBook struct {
	Title    string        `yaml:"title"`
	Author   string        `yaml:"author"`
	ISBN     string        `yaml:"isbn"`
	Summary  string        `yaml:"summary"`
	Genres   []string      `yaml:"genres"`
	Language string        `yaml:"language"`
	Copies   []fixtureCopy `yaml:"copies"`
}

type fixtureCopy struct {
	Imprint  string `yaml:"imprint"`
	Language string `yaml:"language"`
	Status   string `yaml:"status"`
	Borrower string `yaml:"borrower"`
	DueBack  string `yaml:"due_back"`
}

// seedStats counts what a seed run created.
type seedStats struct {
	Genres, Languages, Authors, Books, Copies, Skipped int
}

func (s seedStats) String() string {
	return fmt.Sprintf("%d genres, %d languages, %d authors, %d books, %d copies created; %d books already present",
		s.Genres, s.Languages, s.Authors, s.Books, s.Copies, s.Skipped)
}

func newSeedCmd(a *app) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load genres, languages, authors, books and copies from a YAML file",
		Long: "Load catalog records from a YAML file. Records that already exist are " +
			"reused, so a file can be applied more than once.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fx, err := decodeFixture(f)
			if err != nil {
				return err
			}

			c, err := a.catalog()
			if err != nil {
				return err
			}
			actor, err := a.actor(cmd.Context(), as)
			if err != nil {
				return err
			}

			stats, err := applyFixture(cmd.Context(), c, actor, fx)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Librarian username the records are logged under")
	return cmd
}

func decodeFixture(r io.Reader) (*fixture, error) {
	var fx fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// seeder tracks the ids of records by the names the fixture uses.
type seeder struct {
	c     *service.Catalog
	actor *domain.User

	genres    map[string]int64
	languages map[string]int64
	authors   map[string]int64
	statuses  map[string]int64
	users     map[string]string

	stats seedStats
}

func nameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// applyFixture creates every record in fx that is not already present.
func applyFixture(ctx context.Context, c *service.Catalog, actor *domain.User, fx *fixture) (seedStats, error) {
	ch, err := c.Choices(ctx)
	if err != nil {
		return seedStats{}, err
	}

	s := &seeder{
		c:         c,
		actor:     actor,
		genres:    make(map[string]int64),
		languages: make(map[string]int64),
		authors:   make(map[string]int64),
		statuses:  make(map[string]int64),
		users:     make(map[string]string),
	}
	for _, g := range ch.Genres {
		s.genres[nameKey(g.Name)] = g.ID
	}
	for _, l := range ch.Languages {
		s.languages[nameKey(l.Name)] = l.ID
	}
	for _, st := range ch.Statuses {
		s.statuses[nameKey(st.Name)] = st.ID
	}
	for _, u := range ch.Users {
		s.users[nameKey(u.Username)] = u.ID
	}
	existingAuthors := make(map[string]int64, len(ch.Authors))
	for _, au := range ch.Authors {
		existingAuthors[nameKey(au.FirstName+" "+au.LastName)] = au.ID
	}

	for _, name := range fx.Genres {
		if _, err := s.genre(ctx, name); err != nil {
			return s.stats, err
		}
	}
	for _, name := range fx.Languages {
		if _, err := s.language(ctx, name); err != nil {
			return s.stats, err
		}
	}

	for _, fa := range fx.Authors {
		if fa.Key == "" {
			return s.stats, fmt.Errorf("author %s %s has no key", fa.FirstName, fa.LastName)
		}
		if id, ok := existingAuthors[nameKey(fa.FirstName+" "+fa.LastName)]; ok {
			s.authors[fa.Key] = id
			continue
		}
		au, err := c.Authors.Create(ctx, actor, service.AuthorForm{
			FirstName:   fa.FirstName,
			LastName:    fa.LastName,
			DateOfBirth: fa.DateOfBirth,
			DateOfDeath: fa.DateOfDeath,
		})
		if err != nil {
			return s.stats, fmt.Errorf("author %q: %w", fa.Key, err)
		}
		s.authors[fa.Key] = au.ID
		s.stats.Authors++
	}

	for _, fb := range fx.Books {
		if err := s.book(ctx, fb); err != nil {
			return s.stats, fmt.Errorf("book %q: %w", fb.Title, err)
		}
	}
	return s.stats, nil
}

func (s *seeder) genre(ctx context.Context, name string) (int64, error) {
	if id, ok := s.genres[nameKey(name)]; ok {
		return id, nil
	}
	g, err := s.c.Genres.Create(ctx, s.actor, service.GenreForm{Name: name})
	if err != nil {
		return 0, fmt.Errorf("genre %q: %w", name, err)
	}
	s.genres[nameKey(name)] = g.ID
	s.stats.Genres++
	return g.ID, nil
}

func (s *seeder) language(ctx context.Context, name string) (int64, error) {
	if id, ok := s.languages[nameKey(name)]; ok {
		return id, nil
	}
	l, err := s.c.Languages.Create(ctx, s.actor, service.LanguageForm{Name: name})
	if err != nil {
		return 0, fmt.Errorf("language %q: %w", name, err)
	}
	s.languages[nameKey(name)] = l.ID
	s.stats.Languages++
	return l.ID, nil
}

func (s *seeder) book(ctx context.Context, fb fixtureBook) error {
	authorID, ok := s.authors[fb.Author]
	if !ok {
		return fmt.Errorf("unknown author key %q", fb.Author)
	}
	languageID, err := s.language(ctx, fb.Language)
	if err != nil {
		return err
	}
	genreIDs := make([]int64, 0, len(fb.Genres))
	for _, name := range fb.Genres {
		id, err := s.genre(ctx, name)
		if err != nil {
			return err
		}
		genreIDs = append(genreIDs, id)
	}

	b, err := s.c.Books.Create(ctx, s.actor, service.BookForm{
		Title:      fb.Title,
		AuthorID:   authorID,
		Summary:    fb.Summary,
		ISBN:       fb.ISBN,
		GenreIDs:   genreIDs,
		LanguageID: languageID,
	})
	if domainerrors.FieldsOf(err)["isbn"] == "already in use" {
		// Copies of a book seen before were created with it.
		s.stats.Skipped++
		return nil
	}
	if err != nil {
		return err
	}
	s.stats.Books++

	for _, fc := range fb.Copies {
		form := service.InstanceForm{
			BookID:     b.ID,
			LanguageID: languageID,
			Imprint:    fc.Imprint,
			DueBack:    fc.DueBack,
		}
		if fc.Language != "" {
			if form.LanguageID, err = s.language(ctx, fc.Language); err != nil {
				return err
			}
		}
		if fc.Status != "" {
			id, ok := s.statuses[nameKey(fc.Status)]
			if !ok {
				return fmt.Errorf("unknown status %q", fc.Status)
			}
			form.StatusID = id
		}
		if fc.Borrower != "" {
			id, ok := s.users[nameKey(fc.Borrower)]
			if !ok {
				return fmt.Errorf("unknown borrower %q", fc.Borrower)
			}
			form.BorrowerID = id
		}
		if _, err := s.c.Instances.Create(ctx, s.actor, form); err != nil {
			return fmt.Errorf("copy %q: %w", fc.Imprint, err)
		}
		s.stats.Copies++
	}
	return nil
}
