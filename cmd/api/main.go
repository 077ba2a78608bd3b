package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "creditflow/internal/adapter/http"
	mw "creditflow/internal/adapter/middleware"
	"creditflow/internal/adapter/repository/mysql"
	"creditflow/internal/config"
	"creditflow/internal/infrastructure/cache"
	"creditflow/internal/infrastructure/db"
	agreementUC "creditflow/internal/usecase/agreement"
	creditlineUC "creditflow/internal/usecase/creditline"
	identityUC "creditflow/internal/usecase/identity"
	loanUC "creditflow/internal/usecase/loan"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	identities := mysql.NewIdentityRepository(gdb)
	unit := mysql.NewGormUoW(gdb)

	identityUsecase := identityUC.NewUsecase(identities)
	agreementUsecase := agreementUC.NewUsecase(unit, identityUsecase)
	creditLineUsecase := creditlineUC.NewUsecase(unit, identityUsecase)
	loanUsecase := loanUC.NewUsecase(unit, identityUsecase)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	httpadp.RegisterRoutes(e, httpadp.Handlers{
		Health:     httpadp.NewHandler(),
		Identity:   httpadp.NewIdentityHandler(identityUsecase),
		Agreement:  httpadp.NewAgreementHandler(agreementUsecase),
		CreditLine: httpadp.NewCreditLineHandler(creditLineUsecase),
		Loan:       httpadp.NewLoanHandler(loanUsecase),
	},
		mw.AuthMiddleware(cfg.JWTSecret),
		mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second),
	)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
