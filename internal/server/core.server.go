package server

import (
	"log"

	"bookkeeping-service/internal/classifier"
	"bookkeeping-service/internal/config"
	hrest "bookkeeping-service/internal/handler/rest"
	publisher "bookkeeping-service/internal/pub"
	"bookkeeping-service/internal/repository"
	"bookkeeping-service/internal/service"
	"bookkeeping-service/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewBookkeepingServer wires the whole service and blocks on the REST
// listener.
func NewBookkeepingServer(cfg config.AppConfig) {
	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Kafka writer ---
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()

	// --- Repositories ---
	accountRepo := repository.NewAccountRepo(dbpool)
	periodRepo := repository.NewPeriodRepo(dbpool)
	partyRepo := repository.NewPartyRepo(dbpool)
	transactionRepo := repository.NewTransactionRepo(dbpool, periodRepo)
	balanceRepo := repository.NewBalanceRepo(dbpool)
	ledgerRepo := repository.NewLedgerRepo(dbpool)

	// --- Publishers ---
	eventPublisher := publisher.NewPostingEventPublisher(rdb)

	// --- Usecases ---
	accountUC := usecase.NewAccountUsecase(accountRepo, rdb)
	txUC := usecase.NewTransactionUsecase(transactionRepo, accountRepo, periodRepo, partyRepo, rdb, kafkaWriter, eventPublisher, logger)
	trialBalanceUC := usecase.NewTrialBalanceUsecase(accountRepo, balanceRepo, periodRepo, rdb)
	ledgerUC := usecase.NewLedgerUsecase(accountRepo, partyRepo, ledgerRepo, rdb)
	statementUC := usecase.NewStatementUsecase(accountRepo, balanceRepo, periodRepo, classifier.New(nil), rdb)
	partyUC := usecase.NewPartyUsecase(partyRepo)
	periodUC := usecase.NewPeriodUsecase(periodRepo)

	// --- Services ---
	systemSeeder := service.NewSystemSeeder(accountUC)

	// --- REST handler ---
	restHandler := hrest.NewBooksRestHandler(
		accountUC,
		txUC,
		trialBalanceUC,
		ledgerUC,
		statementUC,
		partyUC,
		periodUC,
		systemSeeder,
	)

	log.Printf("Bookkeeping REST server listening on %s", cfg.HTTPAddr)
	restHandler.Start(cfg.HTTPAddr)
}
