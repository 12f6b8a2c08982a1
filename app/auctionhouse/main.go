package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/database/mongoclient"
	"github.com/x-xyz/auctionhouse/base/database/redisclient"
	"github.com/x-xyz/auctionhouse/base/env"
	"github.com/x-xyz/auctionhouse/base/goroutine"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/base/metrics"
	bValidator "github.com/x-xyz/auctionhouse/base/validator"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
	"github.com/x-xyz/auctionhouse/domain/funds"
	mmiddleware "github.com/x-xyz/auctionhouse/middleware"
	"github.com/x-xyz/auctionhouse/service/cache/provider"
	"github.com/x-xyz/auctionhouse/service/cache/provider/compound"
	"github.com/x-xyz/auctionhouse/service/cache/provider/primitive"
	redisprovider "github.com/x-xyz/auctionhouse/service/cache/provider/redis"
	"github.com/x-xyz/auctionhouse/service/chain"
	"github.com/x-xyz/auctionhouse/service/notify"
	"github.com/x-xyz/auctionhouse/service/query"
	"github.com/x-xyz/auctionhouse/service/redis"
	"github.com/x-xyz/auctionhouse/service/registry"
	"github.com/x-xyz/auctionhouse/service/registry/memory"
	"github.com/x-xyz/auctionhouse/service/registry/onchain"
	auction_delivery "github.com/x-xyz/auctionhouse/stores/auction/delivery/http"
	auction_repository "github.com/x-xyz/auctionhouse/stores/auction/repository"
	auction_usecase "github.com/x-xyz/auctionhouse/stores/auction/usecase"
	custody_delivery "github.com/x-xyz/auctionhouse/stores/custody/delivery/http"
	custody_repository "github.com/x-xyz/auctionhouse/stores/custody/repository"
	funds_delivery "github.com/x-xyz/auctionhouse/stores/funds/delivery/http"
	funds_repository "github.com/x-xyz/auctionhouse/stores/funds/repository"
	hc_delivery "github.com/x-xyz/auctionhouse/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/auctionhouse/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/auctionhouse/stores/healthcheck/usecase"
)

const (
	driverMemory = "memory"
	driverMongo  = "mongo"
	driverRedis  = "redis"
	driverChain  = "onchain"

	driverCompound = "compound"
)

type mintCfg struct {
	Owner    domain.Address `mapstructure:"owner"`
	TokenId  domain.TokenId `mapstructure:"tokenId"`
	Quantity uint64         `mapstructure:"quantity"`
}

type registryCfg struct {
	Address  domain.Address `mapstructure:"address"`
	Standard int            `mapstructure:"standard"`
	Driver   string         `mapstructure:"driver"`
	// Mints seeds the balances of a memory registry
	Mints []mintCfg `mapstructure:"mints"`
}

var configFile = pflag.String("config", "infra/configs/config.yaml", "path of the yaml config")

func init() {
	pflag.Parse()

	viper.SetDefault("auction.requireBidSignature", true)
	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	env.BindViper(viper.GetViper())
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	context := ctx.Background()

	if err := metrics.Setup(viper.GetString("datadog.host"), viper.GetInt("datadog.port")); err != nil {
		context.WithField("err", err).Warn("metrics fall back to log")
	}

	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	var (
		auctionRepo   auction.Repo
		custodyLedger custody.Ledger
		fundsLedger   funds.Ledger
		mongoClient   *mongoclient.Client
		redisCache    redis.Service
		cache         provider.Provider
	)

	switch driver := viper.GetString("storage.driver"); driver {
	case driverMongo:
		context.Info("init mongo")
		mongoClient = mongoclient.MustConnect(mongoclient.Config{
			URI:                viper.GetString("mongo.uri"),
			AuthDBName:         viper.GetString("mongo.authDBName"),
			DbName:             viper.GetString("mongo.dbName"),
			SSL:                viper.GetBool("mongo.enableSSL"),
			SetSafe:            true,
			PoolSizeMultiplier: viper.GetFloat64("mongo.poolMultiplier"),
		})
		q := query.New(mongoClient)
		if viper.GetBool("mongo.checkIndex") {
			for _, ensure := range []func(ctx.Ctx, query.Mongo) error{
				auction_repository.EnsureIndexes,
				custody_repository.EnsureIndexes,
				funds_repository.EnsureIndexes,
			} {
				if err := ensure(context, q); err != nil {
					context.WithField("err", err).Panic("ensure indexes failed")
				}
			}
		}
		auctionRepo = auction_repository.NewMongo(q)
		custodyLedger = custody_repository.NewMongo(q)
		fundsLedger = funds_repository.NewMongo(q)
	case driverMemory:
		auctionRepo = auction_repository.NewMemory()
		custodyLedger = custody_repository.NewMemory()
		fundsLedger = funds_repository.NewMemory()
	default:
		context.WithField("driver", driver).Panic("unknown storage driver")
	}

	if viper.IsSet("redis_cache.uri") {
		context.Info("init redis cache")
		redisCacheName := viper.GetString("redis_cache.name")
		redisCachePool := redisclient.MustConnect(redisclient.Config{
			URI:            viper.GetString("redis_cache.uri"),
			Password:       viper.GetString("redis_cache.password"),
			PoolMultiplier: viper.GetFloat64("redis_cache.poolMultiplier"),
			Retry:          true,
		})
		redisCache = redis.New(redisCacheName, metrics.New(redisCacheName), redisCachePool)
	}

	local := primitive.NewPrimitive("auctionhouse", viper.GetInt("cache.sizeMB"))
	switch driver := viper.GetString("cache.driver"); driver {
	case driverRedis, driverCompound:
		if redisCache == nil {
			context.WithField("driver", driver).Panic("cache driver requires redis_cache.uri")
		}
		cache = redisprovider.NewRedis(redisCache)
		if driver == driverCompound {
			cache = compound.NewCompound(viper.GetDuration("cache.fillTTL"), local, cache)
		}
	default:
		cache = local
	}
	auctionRepo = auction_repository.NewCached(auctionRepo, cache)

	// init registries
	var (
		chainClient  chain.Client
		chainId      = domain.ChainId(viper.GetInt32("chain.id"))
		engineAddr   = domain.Address(viper.GetString("auction.address")).ToLower()
		memoryStores []*memory.Registry
	)
	if viper.IsSet("chain.rpcUrl") {
		context.Info("init chain client")
		client, err := chain.NewClient(context, &chain.ClientCfg{
			RpcUrls:       map[int32]string{int32(chainId): viper.GetString("chain.rpcUrl")},
			PrivateKey:    viper.GetString("chain.privateKey"),
			MaxConcurrent: viper.GetInt("chain.maxConcurrent"),
		})
		if err != nil {
			context.WithField("err", err).Panic("chain.NewClient failed")
		}
		chainClient = client
		if sender := client.Sender(); sender != (common.Address{}) {
			engineAddr = domain.AddressFromCommon(sender)
		}
	}
	if engineAddr.IsEmpty() {
		context.Panic("auction.address or chain.privateKey is required")
	}

	var regCfgs []registryCfg
	if err := viper.UnmarshalKey("registries", &regCfgs); err != nil {
		context.WithField("err", err).Panic("invalid registries config")
	}
	directory := registry.NewDirectory()
	for _, rc := range regCfgs {
		standard := domain.TokenType(rc.Standard)
		if !standard.IsValid() {
			context.WithFields(log.Fields{"address": rc.Address, "standard": rc.Standard}).Panic("invalid token standard")
		}
		var r asset.Registry
		switch rc.Driver {
		case driverChain:
			if chainClient == nil {
				context.WithField("address", rc.Address).Panic("onchain registry requires chain.rpcUrl")
			}
			r = onchain.New(chainClient, chainId, rc.Address, standard, viper.GetDuration("chain.mineTimeout"))
		case driverMemory, "":
			m := memory.New(rc.Address, standard)
			for _, mint := range rc.Mints {
				if err := m.Mint(mint.Owner.ToLower(), mint.TokenId, mint.Quantity); err != nil {
					context.WithFields(log.Fields{"address": rc.Address, "mint": mint, "err": err}).Panic("seeding registry failed")
				}
			}
			memoryStores = append(memoryStores, m)
			r = m
		default:
			context.WithField("driver", rc.Driver).Panic("unknown registry driver")
		}
		directory.Add(r)
	}

	// init publishers
	publishers := []auction.Publisher{notify.NewLog()}
	if redisCache != nil && viper.GetBool("notify.redis") {
		publishers = append(publishers, notify.NewRedis(redisCache))
	}
	publisher := notify.NewAsync(notify.NewFanout(publishers...))
	defer publisher.Close()

	engine := auction_usecase.New(&auction_usecase.Config{
		Repo:       auctionRepo,
		Custody:    custodyLedger,
		Funds:      fundsLedger,
		Registries: directory,
		Publisher:  publisher,
		Address:    engineAddr,
		Payout:     domain.Address(viper.GetString("auction.payout")).ToLower(),
	})
	for _, m := range memoryStores {
		m.RegisterReceiver(engineAddr, engine)
	}

	// init handlers
	webhookToken := viper.GetString("auction.webhookToken")
	if webhookToken == "" {
		context.Warn("auction.webhookToken is empty, webhooks and credits are closed")
	}
	hcRepo := hc_repo.New(mongoClient, redisCache)
	hc_delivery.New(e, hc_usecase.New(hcRepo))
	auction_delivery.New(e, engine, auction_delivery.Config{
		WebhookToken:      webhookToken,
		AllowUnsignedBids: !viper.GetBool("auction.requireBidSignature"),
		Payout:            domain.Address(viper.GetString("auction.payout")).ToLower(),
		Cache:             cache,
	})
	custody_delivery.New(e, engine)
	funds_delivery.New(e, fundsLedger, webhookToken)

	addr := viper.GetString("server.address")
	goroutine.RecoverableGo(func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}, goroutine.WithName("echo"))

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	c, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(c); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
