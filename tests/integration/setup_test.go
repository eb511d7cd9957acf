package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	adaptershttp "github.com/iho/acctledger/internal/adapter/http"
	"github.com/iho/acctledger/internal/adapter/http/handler"
	"github.com/iho/acctledger/internal/adapter/http/middleware"
	"github.com/iho/acctledger/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/acctledger/internal/adapter/repository/redis"
	"github.com/iho/acctledger/internal/infrastructure/idgen"
	infraredis "github.com/iho/acctledger/internal/infrastructure/redis"
	"github.com/iho/acctledger/internal/usecase"
	"github.com/iho/acctledger/tests/testutil"
)

// ledger wires the postgres store, a miniredis-backed cache and the HTTP
// router the way the server does.
type ledger struct {
	db           *testutil.TestDB
	accountRepo  *postgres.AccountRepository
	transactions *postgres.TransactionRepository
	accountUC    *usecase.AccountUseCase
	transferUC   *usecase.TransferUseCase
	importUC     *usecase.ImportUseCase
	redis        *miniredis.Miniredis
	router       http.Handler
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	db := testutil.NewTestDB(t)
	db.TruncateAll(ctx)

	txManager, accountRepo, transactionRepo := db.Repositories()

	mr := miniredis.RunT(t)

	redisClient, err := infraredis.NewClient(ctx, infraredis.ClientConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() { _ = redisClient.Close() })

	accountUC := usecase.NewAccountUseCase(
		txManager, accountRepo, transactionRepo,
		idgen.NewUUIDGenerator(),
		usecase.NewSlugGenerator(idgen.NewHexSuffixSource(8)),
		usecase.WithSlugCache(redisrepo.NewSlugCache(redisClient, time.Minute)),
	)
	transferUC := usecase.NewTransferUseCase(
		txManager, accountRepo, transactionRepo,
		idgen.NewULIDGenerator(),
		usecase.WithRetrier(postgres.NewRetrier(zerolog.Nop())),
	)
	importUC := usecase.NewImportUseCase(accountUC)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(transferUC, accountUC),
		ImportHandler:      handler.NewImportHandler(importUC, 1<<20),
		LedgerHandler:      handler.NewLedgerHandler(accountUC),
		HealthHandler: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": txManager.Ping,
			"redis":    infraredis.Pinger(redisClient),
		}),
		Logger:                zerolog.Nop(),
		IdempotencyMiddleware: middleware.NewIdempotencyMiddleware(redisrepo.NewIdempotencyStore(redisClient), time.Hour, zerolog.Nop()),
	})

	return &ledger{
		db:           db,
		accountRepo:  accountRepo,
		transactions: transactionRepo,
		accountUC:    accountUC,
		transferUC:   transferUC,
		importUC:     importUC,
		redis:        mr,
		router:       router,
	}
}

func (l *ledger) serve(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")

	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	l.router.ServeHTTP(w, r)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}

	return v
}
