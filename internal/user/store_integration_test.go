//go:build integration

package user_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/database"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

func TestUserStores(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Store Integration Suite")
}

var (
	ctx        context.Context
	pgStore    *user.Repository
	mongoStore *user.MongoRepository
	containers []testcontainers.Container
)

var _ = BeforeSuite(func() {
	ctx = context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("auth_test"),
		postgres.WithUsername("auth"),
		postgres.WithPassword("auth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())
	containers = append(containers, pg)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())
	Expect(database.RunMigrations(connStr)).To(Succeed())

	sqlDB, err := sql.Open("postgres", connStr)
	Expect(err).NotTo(HaveOccurred())
	pgStore = user.NewRepository(database.NewBunDB(sqlDB))
	Expect(pgStore.Connect(ctx)).To(Succeed())

	mongo, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	Expect(err).NotTo(HaveOccurred())
	containers = append(containers, mongo)

	endpoint, err := mongo.Endpoint(ctx, "mongodb")
	Expect(err).NotTo(HaveOccurred())

	client, err := database.NewMongoClient(config.MongoConfig{URI: endpoint, ConnectTimeout: 10 * time.Second})
	Expect(err).NotTo(HaveOccurred())
	mongoStore = user.NewMongoRepository(client, "auth_test", "users")
	Expect(mongoStore.Connect(ctx)).To(Succeed())
})

var _ = AfterSuite(func() {
	if pgStore != nil {
		_ = pgStore.Disconnect(ctx)
	}
	if mongoStore != nil {
		_ = mongoStore.Disconnect(ctx)
	}
	for _, c := range containers {
		_ = c.Terminate(ctx)
	}
})

func describeStore(name string, store func() user.Store) bool {
	return Describe(name, func() {
		It("creates and finds a user by exact email", func() {
			created, err := store().Create(ctx, "Ana", "ana@"+name+".test", "hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.CreatedAt).NotTo(BeZero())

			found, err := store().FindByEmail(ctx, "ana@"+name+".test")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(created.ID))
			Expect(found.Name).To(Equal("Ana"))
			Expect(found.PasswordHash).To(Equal("hash"))
		})

		It("reports a missing user as ErrNotFound", func() {
			_, err := store().FindByEmail(ctx, "nobody@"+name+".test")
			Expect(err).To(MatchError(user.ErrNotFound))
		})

		It("rejects a second user with the same email", func() {
			email := "dup@" + name + ".test"
			_, err := store().Create(ctx, "First", email, "hash")
			Expect(err).NotTo(HaveOccurred())

			_, err = store().Create(ctx, "Second", email, "hash")
			Expect(err).To(MatchError(user.ErrDuplicateEmail))
		})

		It("lets exactly one concurrent create win", func() {
			email := "race@" + name + ".test"
			const workers = 8

			var (
				wg         sync.WaitGroup
				mu         sync.Mutex
				created    int
				duplicates int
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := store().Create(ctx, "Racer", email, "hash")
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						created++
						return
					}
					Expect(err).To(MatchError(user.ErrDuplicateEmail))
					duplicates++
				}()
			}
			wg.Wait()

			Expect(created).To(Equal(1))
			Expect(duplicates).To(Equal(workers - 1))
		})

		It("answers pings", func() {
			Expect(store().Ping(ctx)).To(Succeed())
		})
	})
}

var _ = describeStore("postgres", func() user.Store { return pgStore })

var _ = describeStore("mongo", func() user.Store { return mongoStore })
