// Package seed populates the database with realistic development data. It is
// intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"snipstream/internal/database"
	"snipstream/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much data the seeder creates.
type Options struct {
	NumUsers    int
	NumItems    int
	ShouldClean bool
}

// DefaultPassword is the password every seeded user gets.
const DefaultPassword = "password123"

var (
	languages = []string{"go", "python", "typescript", "rust", "ruby", "sql", "bash", "c"}

	tagPool = []string{
		"cli", "web", "testing", "concurrency", "database", "http", "json",
		"parsing", "caching", "auth", "deploy", "performance", "tooling",
	}

	bugSeverities = []string{
		models.BugSeverityLow, models.BugSeverityMedium,
		models.BugSeverityHigh, models.BugSeverityCritical,
	}
)

// Seed fills the database with a follow mesh of users and a spread of
// snippets, docs, and bug reports with engagement on top.
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 25
	}
	if opts.NumItems <= 0 {
		opts.NumItems = 100
	}
	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("seeding %d users and %d content items", opts.NumUsers, opts.NumItems)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("clear existing data: %w", err)
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}

	if err := createFollowMesh(db, users); err != nil {
		return fmt.Errorf("create follow mesh: %w", err)
	}

	if err := createContent(db, users, opts.NumItems); err != nil {
		return fmt.Errorf("create content: %w", err)
	}

	if err := createEngagement(db, users); err != nil {
		return fmt.Errorf("create engagement: %w", err)
	}

	log.Printf("seeding complete; all users have the password %q", DefaultPassword)
	return nil
}

// clearData truncates every seeded table. The registry lists parents first, so
// deletion walks it in reverse to keep foreign keys satisfied.
func clearData(db *gorm.DB) error {
	registry := database.PersistentModels()
	for i := len(registry) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(registry[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Username: fmt.Sprintf("%s%s", strings.ToLower(gofakeit.Username()), gofakeit.DigitN(3)),
			Email:    gofakeit.Email(),
			Password: string(hash),
			Bio:      gofakeit.Sentence(8),
			Avatar:   fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
		}
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// createFollowMesh gives every user a handful of followings so feeds have
// material on first load.
func createFollowMesh(db *gorm.DB, users []*models.User) error {
	for _, follower := range users {
		n := 2 + rand.Intn(6)
		seen := map[uint]bool{follower.ID: true}
		for i := 0; i < n; i++ {
			target := users[rand.Intn(len(users))]
			if seen[target.ID] {
				continue
			}
			seen[target.ID] = true

			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&models.Follow{
					FollowerID:  follower.ID,
					FollowingID: target.ID,
				}).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Where("id = ?", follower.ID).
					UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
					return err
				}
				return tx.Model(&models.User{}).Where("id = ?", target.ID).
					UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// createContent spreads items over the three kinds, weighted the way real
// activity skews: mostly snippets, some docs, occasional bug reports.
func createContent(db *gorm.DB, users []*models.User, n int) error {
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		createdAt := time.Now().Add(-time.Duration(rand.Intn(30*24)) * time.Hour)

		var err error
		switch roll := rand.Intn(10); {
		case roll < 7:
			snippet := &models.Snippet{
				Title:    gofakeit.Sentence(4),
				Content:  gofakeit.Paragraph(1, 3, 8, "\n"),
				Language: languages[rand.Intn(len(languages))],
				Tags:     randomTags(),
				IsPublic: rand.Intn(10) > 0,
				AuthorID: author.ID,
			}
			if err = db.Create(snippet).Error; err == nil {
				err = backdate(db, snippet, createdAt)
			}
		case roll < 9:
			doc := &models.Doc{
				Title:    gofakeit.Sentence(5),
				Body:     gofakeit.Paragraph(3, 4, 10, "\n\n"),
				Tags:     randomTags(),
				IsPublic: true,
				AuthorID: author.ID,
			}
			if err = db.Create(doc).Error; err == nil {
				err = backdate(db, doc, createdAt)
			}
		default:
			bug := &models.Bug{
				Title:       gofakeit.Sentence(5),
				Description: gofakeit.Paragraph(1, 2, 8, "\n"),
				Status:      models.BugStatusOpen,
				Severity:    bugSeverities[rand.Intn(len(bugSeverities))],
				Tags:        randomTags(),
				ExpiresAt:   time.Now().Add(time.Duration(12+rand.Intn(7*24)) * time.Hour),
				AuthorID:    author.ID,
			}
			if err = db.Create(bug).Error; err == nil {
				err = backdate(db, bug, createdAt)
			}
		}
		if err != nil {
			return err
		}

		if err := db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("content_count", gorm.Expr("content_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

// createEngagement adds likes and comments on random snippets.
func createEngagement(db *gorm.DB, users []*models.User) error {
	var snippets []models.Snippet
	if err := db.Where("is_public = ?", true).Limit(50).Find(&snippets).Error; err != nil {
		return err
	}

	for i := range snippets {
		snippet := &snippets[i]
		for _, user := range users {
			if rand.Intn(5) != 0 || user.ID == snippet.AuthorID {
				continue
			}
			like := &models.Like{UserID: user.ID, SnippetID: &snippet.ID}
			if err := db.Create(like).Error; err != nil {
				return err
			}
			if rand.Intn(3) == 0 {
				comment := &models.Comment{
					Content:   gofakeit.Sentence(10),
					AuthorID:  user.ID,
					SnippetID: &snippet.ID,
				}
				if err := db.Create(comment).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func randomTags() string {
	n := 1 + rand.Intn(3)
	picked := make([]string, 0, n)
	for i := 0; i < n; i++ {
		picked = append(picked, tagPool[rand.Intn(len(tagPool))])
	}
	return strings.Join(picked, ",")
}

// backdate rewrites created_at so feeds show a realistic time spread.
func backdate(db *gorm.DB, model interface{}, at time.Time) error {
	return db.Model(model).UpdateColumn("created_at", at).Error
}
