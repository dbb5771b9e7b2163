package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/auth"
	"github.com/Ayman482/nile-dose-cafe-website/internal/authz"
	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/Ayman482/nile-dose-cafe-website/internal/server"
	"github.com/Ayman482/nile-dose-cafe-website/internal/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Config struct {
	Username string
	Password string
	DBName   string
}

type LoyaltySystemTestSuite struct {
	suite.Suite
	db       *dbconnector.DBConnector
	ls       *server.ServerSystem
	router   *mux.Router
	postgres testcontainers.Container
	ctx      context.Context
}

func (suite *LoyaltySystemTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("Skipping integration test")
	}
	cfg := &Config{
		Username: "postgres",
		Password: "example",
		DBName:   "nilecafe",
	}
	suite.ctx = context.Background()

	startCtx, cancel := context.WithTimeout(suite.ctx, 60*time.Second)
	defer cancel()
	postgresContainer, err := tcpostgres.RunContainer(startCtx,
		testcontainers.WithImage("docker.io/postgres:16-alpine"),
		tcpostgres.WithDatabase(cfg.DBName),
		tcpostgres.WithUsername(cfg.Username),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(suite.T(), err)
	suite.postgres = postgresContainer

	host, err := postgresContainer.Host(startCtx)
	require.NoError(suite.T(), err)
	port, err := postgresContainer.MappedPort(startCtx, "5432")
	require.NoError(suite.T(), err)
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port.Port(), cfg.Username, cfg.Password, cfg.DBName)

	node, err := snowflake.NewNode(1)
	require.NoError(suite.T(), err)
	db, err := dbconnector.OpenDBConnect(dsn, node, clock.Real{})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.DBInitialize())
	// running the migrations twice is a no-op
	require.NoError(suite.T(), db.DBInitialize())
	suite.db = db

	enforcer, err := authz.NewEnforcer(db.DB)
	require.NoError(suite.T(), err)

	log := zap.NewNop()
	tokens := auth.NewTokenManager("integration-secret", time.Hour, clock.Real{})
	loyalty := service.NewLoyaltyService(db, nil, nil, log)
	suite.ls = server.NewServerSystem(server.Dependencies{
		Users:      service.NewUserService(db, tokens, log),
		Loyalty:    loyalty,
		Rewards:    service.NewRewardCatalog(db, log),
		Catering:   service.NewCateringService(db, loyalty, nil, nil, log),
		Tokens:     tokens,
		Authorizer: authz.NewAuthorizer(enforcer, log),
		Health:     db,
	}, log)
	suite.router = suite.ls.Router()
}

func (suite *LoyaltySystemTestSuite) TearDownSuite() {
	if suite.postgres == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(suite.T(), suite.db.Close())
	require.NoError(suite.T(), suite.postgres.Terminate(ctx))
}

func (suite *LoyaltySystemTestSuite) SetupTest() {
	require.NoError(suite.T(), suite.db.DeleteAllData(suite.ctx))
}

func (suite *LoyaltySystemTestSuite) request(method, path, token string, body any) (*httptest.ResponseRecorder, json.RawMessage) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(suite.T(), err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	suite.router.ServeHTTP(rr, req)

	var result struct {
		Data json.RawMessage `json:"data"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &result)
	return rr, result.Data
}

// registerUser goes through the API so the users row exists for the ledger foreign keys.
func (suite *LoyaltySystemTestSuite) registerUser(email string) models.AuthResponse {
	rr, data := suite.request(http.MethodPost, "/api/user/register", "", models.RegisterRequest{Email: email, Password: "password"})
	require.Equal(suite.T(), http.StatusCreated, rr.Code, rr.Body.String())
	var resp models.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(data, &resp))
	return resp
}

func (suite *LoyaltySystemTestSuite) TestBalanceConstraintIsEnforced() {
	user := suite.registerUser("constraint@example.com")
	_, err := suite.db.EarnPoints(suite.ctx, user.User.ID, 10, service.PurchaseCafe, "")
	require.NoError(suite.T(), err)

	err = suite.db.DB.WithContext(suite.ctx).
		Exec("UPDATE loyalty_points SET redeemed_points = total_points + 1 WHERE user_id = ?", user.User.ID).Error
	require.Error(suite.T(), err)

	err = suite.db.DB.WithContext(suite.ctx).
		Exec("INSERT INTO loyalty_transactions (id, user_id, points, type, source, created_at) VALUES (1, ?, -5, 'earn', 'cafe', now())", user.User.ID).Error
	require.Error(suite.T(), err)
}

func (suite *LoyaltySystemTestSuite) TestConcurrentRedemptions() {
	user := suite.registerUser("race@example.com")
	_, err := suite.db.EarnPoints(suite.ctx, user.User.ID, 100, service.PurchaseCafe, "")
	require.NoError(suite.T(), err)

	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr, _ := suite.request(http.MethodPost, "/api/loyalty/redeem", user.Token, models.RedeemRequest{Points: 60, Reward: "Tray"})
			codes <- rr.Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	require.Equal(suite.T(), map[int]int{http.StatusOK: 1, http.StatusPaymentRequired: attempts - 1}, counts)

	account, found, err := suite.db.GetAccount(suite.ctx, user.User.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), found)
	require.Equal(suite.T(), int64(60), account.RedeemedPoints)
	require.Equal(suite.T(), int64(40), account.Available())
}

func (suite *LoyaltySystemTestSuite) TestHistoryPagination() {
	user := suite.registerUser("pages@example.com")
	for i := 1; i <= 15; i++ {
		_, err := suite.db.EarnPoints(suite.ctx, user.User.ID, int64(i), service.PurchaseCafe, fmt.Sprintf("op %d", i))
		require.NoError(suite.T(), err)
	}

	_, first := suite.request(http.MethodGet, "/api/loyalty/history?limit=10&offset=0", user.Token, nil)
	_, second := suite.request(http.MethodGet, "/api/loyalty/history?limit=10&offset=10", user.Token, nil)
	var page1, page2 models.HistoryResponse
	require.NoError(suite.T(), json.Unmarshal(first, &page1))
	require.NoError(suite.T(), json.Unmarshal(second, &page2))

	require.Len(suite.T(), page1.Transactions, 10)
	require.Len(suite.T(), page2.Transactions, 5)
	all := append(page1.Transactions, page2.Transactions...)
	for i := 1; i < len(all); i++ {
		require.Greater(suite.T(), all[i-1].ID.Int64(), all[i].ID.Int64())
		require.False(suite.T(), all[i-1].CreatedAt.Before(all[i].CreatedAt))
	}
	require.Equal(suite.T(), "op 15", all[0].Description)
	require.Equal(suite.T(), "op 1", all[14].Description)
}

func (suite *LoyaltySystemTestSuite) TestRewardDeactivatedBeforeRedemption() {
	user := suite.registerUser("reward@example.com")
	_, err := suite.db.EarnPoints(suite.ctx, user.User.ID, 50, service.PurchaseCafe, "")
	require.NoError(suite.T(), err)

	reward := dbconnector.Reward{
		Name:           datatypes.NewJSONType(models.LocalizedText{"en": "Sahlab", "ar": "سحلب"}),
		Description:    datatypes.NewJSONType(models.LocalizedText{}),
		PointsRequired: 20,
		Active:         true,
	}
	require.NoError(suite.T(), suite.db.CreateReward(suite.ctx, &reward))

	rr, _ := suite.request(http.MethodPost, fmt.Sprintf("/api/loyalty/rewards/%s/redeem", reward.ID), user.Token, nil)
	require.Equal(suite.T(), http.StatusOK, rr.Code, rr.Body.String())

	reward.Active = false
	require.NoError(suite.T(), suite.db.UpdateReward(suite.ctx, &reward))
	rr, _ = suite.request(http.MethodPost, fmt.Sprintf("/api/loyalty/rewards/%s/redeem", reward.ID), user.Token, nil)
	require.Equal(suite.T(), http.StatusConflict, rr.Code)
}

func (suite *LoyaltySystemTestSuite) TestCateringOrderOnPostgres() {
	user := suite.registerUser("feast@example.com")
	item := dbconnector.CateringMenuItem{
		Slug:        "molokhia-tray",
		Name:        datatypes.NewJSONType(models.LocalizedText{"en": "Molokhia Tray"}),
		Description: datatypes.NewJSONType(models.LocalizedText{}),
		Price:       decimal.RequireFromString("120.25"),
		Category:    "mains",
		Serves:      10,
		Active:      true,
	}
	require.NoError(suite.T(), suite.db.CreateMenuItem(suite.ctx, &item))

	rr, data := suite.request(http.MethodPost, "/api/catering/orders", user.Token, models.CateringOrderRequest{
		CustomerName:    "Feast",
		Email:           "feast@example.com",
		Phone:           "0100",
		DeliveryMethod:  service.DeliveryDelivery,
		DeliveryAddress: "5 Corniche",
		DeliveryDate:    "2024-05-01",
		DeliveryTime:    "18:00",
		Items:           []models.CateringOrderItemRequest{{ItemID: item.ID, Quantity: 2}},
	})
	require.Equal(suite.T(), http.StatusCreated, rr.Code, rr.Body.String())
	var order models.CateringOrderResponse
	require.NoError(suite.T(), json.Unmarshal(data, &order))
	require.True(suite.T(), decimal.RequireFromString("240.50").Equal(order.TotalAmount))
	require.Equal(suite.T(), int64(48), order.PointsEarned)

	account, _, err := suite.db.GetAccount(suite.ctx, user.User.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(48), account.TotalPoints)
}

func TestLoyaltySystemTestSuite(t *testing.T) {
	suite.Run(t, new(LoyaltySystemTestSuite))
}
