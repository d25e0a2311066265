package tradingService

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KotFed0t/crypto_trading_sandbox/config"
	"github.com/KotFed0t/crypto_trading_sandbox/data/repository"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/internal/service"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeRepo struct {
	portfolio model.Portfolio
	cryptos   map[string]model.Crypto
	holdings  map[string]model.HoldingBase
	txns      []model.Transaction
	user      model.UserAccount
}

func newFakeRepo(cash string) *fakeRepo {
	return &fakeRepo{
		portfolio: model.Portfolio{
			PortfolioID: 1,
			CashBalance: dec(cash),
			InitialCash: dec(cash),
			CreatedAt:   time.Now().UTC().AddDate(0, 0, -30),
		},
		cryptos:  make(map[string]model.Crypto),
		holdings: make(map[string]model.HoldingBase),
	}
}

func (r *fakeRepo) addCrypto(symbol, coingeckoID, price string) {
	r.cryptos[symbol] = model.Crypto{
		Symbol:       symbol,
		Name:         symbol,
		CoingeckoID:  coingeckoID,
		YahooSymbol:  symbol + "-USD",
		IsActive:     true,
		CurrentPrice: dec(price),
	}
}

type repoSnapshot struct {
	portfolio model.Portfolio
	holdings  map[string]model.HoldingBase
	txnCount  int
}

func (r *fakeRepo) snapshot() repoSnapshot {
	holdings := make(map[string]model.HoldingBase, len(r.holdings))
	for k, v := range r.holdings {
		holdings[k] = v
	}
	return repoSnapshot{portfolio: r.portfolio, holdings: holdings, txnCount: len(r.txns)}
}

func (r *fakeRepo) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	snap := r.snapshot()
	if err := tFunc(ctx); err != nil {
		r.portfolio = snap.portfolio
		r.holdings = snap.holdings
		r.txns = r.txns[:snap.txnCount]
		return err
	}
	return nil
}

func (r *fakeRepo) GetDefaultPortfolio(ctx context.Context) (model.Portfolio, error) {
	return r.portfolio, nil
}

func (r *fakeRepo) GetPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error) {
	if portfolioID != r.portfolio.PortfolioID {
		return model.Portfolio{}, repository.ErrNotFound
	}
	return r.portfolio, nil
}

func (r *fakeRepo) GetPortfolioForUpdate(ctx context.Context, portfolioID int64) (model.Portfolio, error) {
	return r.GetPortfolio(ctx, portfolioID)
}

func (r *fakeRepo) UpdatePortfolioCash(ctx context.Context, portfolioID int64, cashBalance decimal.Decimal) error {
	r.portfolio.CashBalance = cashBalance
	return nil
}

func (r *fakeRepo) GetCrypto(ctx context.Context, symbol string) (model.Crypto, error) {
	crypto, ok := r.cryptos[symbol]
	if !ok {
		return model.Crypto{}, repository.ErrNotFound
	}
	return crypto, nil
}

func (r *fakeRepo) GetActiveCryptos(ctx context.Context) ([]model.Crypto, error) {
	cryptos := make([]model.Crypto, 0, len(r.cryptos))
	for _, c := range r.cryptos {
		if c.IsActive {
			cryptos = append(cryptos, c)
		}
	}
	return cryptos, nil
}

func (r *fakeRepo) UpdateCryptoQuote(ctx context.Context, quote model.Quote, updatedAt time.Time) error {
	crypto, ok := r.cryptos[quote.Symbol]
	if !ok {
		return repository.ErrNotFound
	}
	crypto.CurrentPrice = quote.Price
	crypto.PriceChange24h = quote.Change24h
	crypto.LastUpdated = updatedAt
	r.cryptos[quote.Symbol] = crypto
	return nil
}

func (r *fakeRepo) InsertPriceHistory(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	return nil
}

func (r *fakeRepo) GetHolding(ctx context.Context, portfolioID int64, symbol string) (model.HoldingBase, error) {
	holding, ok := r.holdings[symbol]
	if !ok {
		return model.HoldingBase{}, repository.ErrNotFound
	}
	return holding, nil
}

func (r *fakeRepo) GetHoldings(ctx context.Context, portfolioID int64) ([]model.Holding, error) {
	holdings := make([]model.Holding, 0, len(r.holdings))
	for symbol, base := range r.holdings {
		price := r.cryptos[symbol].CurrentPrice
		value := base.Quantity.Mul(price)
		gain := value.Sub(base.TotalCostBasis)
		holdings = append(holdings, model.Holding{
			Symbol:           base.Symbol,
			Quantity:         base.Quantity,
			AvgPurchasePrice: base.AvgPurchasePrice,
			TotalCostBasis:   base.TotalCostBasis,
			CurrentPrice:     price,
			CurrentValue:     value,
			GainLoss:         gain,
		})
	}
	return holdings, nil
}

func (r *fakeRepo) InsertHolding(ctx context.Context, portfolioID int64, holding model.HoldingBase) error {
	r.holdings[holding.Symbol] = holding
	return nil
}

func (r *fakeRepo) UpdateHolding(ctx context.Context, portfolioID int64, holding model.HoldingBase) error {
	r.holdings[holding.Symbol] = holding
	return nil
}

func (r *fakeRepo) DeleteHolding(ctx context.Context, portfolioID int64, symbol string) error {
	delete(r.holdings, symbol)
	return nil
}

func (r *fakeRepo) InsertTransaction(ctx context.Context, portfolioID int64, txn model.Transaction) error {
	r.txns = append(r.txns, txn)
	return nil
}

func (r *fakeRepo) GetTransactions(ctx context.Context, portfolioID int64, txnType string, limit, offset int) ([]model.Transaction, error) {
	return r.txns, nil
}

func (r *fakeRepo) GetTransactionsSince(ctx context.Context, portfolioID int64, since time.Time) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(r.txns))
	for _, txn := range r.txns {
		if !txn.CreatedAt.Before(since) {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

func (r *fakeRepo) GetFirstTransactionTime(ctx context.Context, portfolioID int64) (time.Time, error) {
	if len(r.txns) == 0 {
		return time.Time{}, repository.ErrNotFound
	}
	return r.txns[0].CreatedAt, nil
}

func (r *fakeRepo) GetDemoUser(ctx context.Context) (model.UserAccount, error) {
	return r.user, nil
}

type fakeCache struct {
	quotes []model.Quote
}

func (c *fakeCache) GetHistoricalPrices(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error) {
	return nil, errors.New("cache miss")
}

func (c *fakeCache) SetHistoricalPrices(ctx context.Context, coingeckoID string, days int, points []model.PricePoint) error {
	return nil
}

func (c *fakeCache) SetQuotes(ctx context.Context, quotes []model.Quote) error {
	c.quotes = append(c.quotes, quotes...)
	return nil
}

type fakeCoingecko struct {
	quotes  map[string]model.Quote
	history []model.PricePoint
}

func (f *fakeCoingecko) GetCurrentQuotes(ctx context.Context, cryptos []model.Crypto) (map[string]model.Quote, error) {
	return f.quotes, nil
}

func (f *fakeCoingecko) GetHistoricalPrices(ctx context.Context, coingeckoID string, days int) ([]model.PricePoint, error) {
	return f.history, nil
}

type fakeFinnhub struct{}

func (fakeFinnhub) GetCryptoNews(ctx context.Context, limit int) ([]model.NewsArticle, error) {
	return nil, nil
}

type fakeYahoo struct {
	points []model.PricePoint
}

func (f *fakeYahoo) GetPriceHistory(ctx context.Context, yahooSymbol, timeframe string) ([]model.PricePoint, error) {
	return f.points, nil
}

type fakeReportGenerator struct{}

func (fakeReportGenerator) Generate(ctx context.Context, txns []model.Transaction) ([]byte, string, error) {
	return []byte("report"), ".xlsx", nil
}

type fakeBroadcaster struct {
	updates []model.PriceUpdate
}

func (f *fakeBroadcaster) BroadcastPriceUpdate(update model.PriceUpdate) {
	f.updates = append(f.updates, update)
}

func newTestService(repo *fakeRepo) (*TradingService, *fakeBroadcaster, *fakeCoingecko) {
	broadcaster := &fakeBroadcaster{}
	coingecko := &fakeCoingecko{}
	srv := New(&config.Config{}, repo, &fakeCache{}, coingecko, fakeFinnhub{}, &fakeYahoo{}, fakeReportGenerator{}, broadcaster)
	return srv, broadcaster, coingecko
}

func TestExecuteBuyByAmount(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	srv, _, _ := newTestService(repo)

	result, err := srv.ExecuteBuy(context.Background(), 1, "BTC", decPtr("5000"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Transaction.Quantity.Equal(dec("0.1")) {
		t.Errorf("quantity = %s, want 0.1", result.Transaction.Quantity)
	}
	if !repo.portfolio.CashBalance.Equal(dec("5000")) {
		t.Errorf("cash = %s, want 5000", repo.portfolio.CashBalance)
	}

	holding := repo.holdings["BTC"]
	if !holding.Quantity.Equal(dec("0.1")) {
		t.Errorf("holding quantity = %s, want 0.1", holding.Quantity)
	}
	if !holding.AvgPurchasePrice.Equal(dec("50000")) {
		t.Errorf("avg price = %s, want 50000", holding.AvgPurchasePrice)
	}
	if len(repo.txns) != 1 {
		t.Fatalf("transactions recorded = %d, want 1", len(repo.txns))
	}
	if repo.txns[0].Type != model.TransactionTypeBuy {
		t.Errorf("transaction type = %s, want BUY", repo.txns[0].Type)
	}

	// portfolio value is conserved right after a trade
	if !result.Portfolio.TotalPortfolioValue.Equal(dec("10000")) {
		t.Errorf("total value = %s, want 10000", result.Portfolio.TotalPortfolioValue)
	}
}

func TestExecuteBuyByQuantity(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("ETH", "ethereum", "2500")
	srv, _, _ := newTestService(repo)

	result, err := srv.ExecuteBuy(context.Background(), 1, "ETH", nil, decPtr("2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Transaction.TotalAmount.Equal(dec("5000")) {
		t.Errorf("total amount = %s, want 5000", result.Transaction.TotalAmount)
	}
	if !repo.portfolio.CashBalance.Equal(dec("5000")) {
		t.Errorf("cash = %s, want 5000", repo.portfolio.CashBalance)
	}
}

func TestExecuteBuyInsufficientFundsKeepsState(t *testing.T) {
	repo := newFakeRepo("5000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	srv, _, _ := newTestService(repo)

	_, err := srv.ExecuteBuy(context.Background(), 1, "BTC", decPtr("6000"), nil)
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	if !repo.portfolio.CashBalance.Equal(dec("5000")) {
		t.Errorf("cash changed to %s on failed trade", repo.portfolio.CashBalance)
	}
	if len(repo.holdings) != 0 {
		t.Errorf("holdings created on failed trade")
	}
	if len(repo.txns) != 0 {
		t.Errorf("transaction recorded on failed trade")
	}
}

func TestExecuteBuyWeightedAverage(t *testing.T) {
	repo := newFakeRepo("20000")
	repo.addCrypto("BTC", "bitcoin", "60000")
	repo.holdings["BTC"] = model.HoldingBase{
		Symbol:           "BTC",
		Quantity:         dec("0.1"),
		AvgPurchasePrice: dec("50000"),
		TotalCostBasis:   dec("5000"),
	}
	srv, _, _ := newTestService(repo)

	_, err := srv.ExecuteBuy(context.Background(), 1, "BTC", nil, decPtr("0.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	holding := repo.holdings["BTC"]
	if !holding.Quantity.Equal(dec("0.2")) {
		t.Errorf("quantity = %s, want 0.2", holding.Quantity)
	}
	if !holding.TotalCostBasis.Equal(dec("11000")) {
		t.Errorf("cost basis = %s, want 11000", holding.TotalCostBasis)
	}
	if !holding.AvgPurchasePrice.Equal(dec("55000")) {
		t.Errorf("avg price = %s, want 55000", holding.AvgPurchasePrice)
	}
}

func TestExecuteBuyValidation(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	repo.addCrypto("NEW", "newcoin", "0")
	srv, _, _ := newTestService(repo)

	tests := []struct {
		name      string
		symbol    string
		amountUSD *decimal.Decimal
		quantity  *decimal.Decimal
		wantErr   error
	}{
		{"neither amount nor quantity", "BTC", nil, nil, service.ErrInvalidTradeRequest},
		{"both amount and quantity", "BTC", decPtr("100"), decPtr("0.1"), service.ErrInvalidTradeRequest},
		{"negative amount", "BTC", decPtr("-100"), nil, service.ErrInvalidTradeRequest},
		{"zero quantity", "BTC", nil, decPtr("0"), service.ErrInvalidTradeRequest},
		{"below minimum", "BTC", decPtr("0.005"), nil, service.ErrBelowMinTradeAmount},
		{"unknown symbol", "DOGE", decPtr("100"), nil, service.ErrNotFound},
		{"no price yet", "NEW", decPtr("100"), nil, service.ErrPriceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.ExecuteBuy(context.Background(), 1, tt.symbol, tt.amountUSD, tt.quantity)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(repo.txns) != 0 {
		t.Errorf("transactions recorded on invalid trades")
	}
}

func TestExecuteSellRealizedGainLoss(t *testing.T) {
	repo := newFakeRepo("0")
	repo.addCrypto("BTC", "bitcoin", "70000")
	repo.holdings["BTC"] = model.HoldingBase{
		Symbol:           "BTC",
		Quantity:         dec("0.2"),
		AvgPurchasePrice: dec("55000"),
		TotalCostBasis:   dec("11000"),
	}
	srv, _, _ := newTestService(repo)

	result, err := srv.ExecuteSell(context.Background(), 1, "BTC", nil, decPtr("0.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (70000 - 55000) * 0.1
	if !result.Transaction.RealizedGainLoss.Equal(dec("1500")) {
		t.Errorf("realized gain = %s, want 1500", result.Transaction.RealizedGainLoss)
	}
	if !repo.portfolio.CashBalance.Equal(dec("7000")) {
		t.Errorf("cash = %s, want 7000", repo.portfolio.CashBalance)
	}

	holding := repo.holdings["BTC"]
	if !holding.Quantity.Equal(dec("0.1")) {
		t.Errorf("remaining quantity = %s, want 0.1", holding.Quantity)
	}
	if !holding.TotalCostBasis.Equal(dec("5500")) {
		t.Errorf("remaining cost basis = %s, want 5500", holding.TotalCostBasis)
	}
	if !holding.AvgPurchasePrice.Equal(dec("55000")) {
		t.Errorf("avg price changed on sell: %s", holding.AvgPurchasePrice)
	}
}

func TestExecuteSellFullPositionDeletesHolding(t *testing.T) {
	repo := newFakeRepo("0")
	repo.addCrypto("ETH", "ethereum", "3000")
	repo.holdings["ETH"] = model.HoldingBase{
		Symbol:           "ETH",
		Quantity:         dec("2"),
		AvgPurchasePrice: dec("2500"),
		TotalCostBasis:   dec("5000"),
	}
	srv, _, _ := newTestService(repo)

	_, err := srv.ExecuteSell(context.Background(), 1, "ETH", nil, decPtr("2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := repo.holdings["ETH"]; ok {
		t.Errorf("holding not deleted after full sell")
	}
	if !repo.portfolio.CashBalance.Equal(dec("6000")) {
		t.Errorf("cash = %s, want 6000", repo.portfolio.CashBalance)
	}
}

func TestExecuteSellInsufficientHoldingsKeepsState(t *testing.T) {
	repo := newFakeRepo("1000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	repo.holdings["BTC"] = model.HoldingBase{
		Symbol:           "BTC",
		Quantity:         dec("0.1"),
		AvgPurchasePrice: dec("50000"),
		TotalCostBasis:   dec("5000"),
	}
	srv, _, _ := newTestService(repo)

	_, err := srv.ExecuteSell(context.Background(), 1, "BTC", nil, decPtr("0.2"))
	if !errors.Is(err, service.ErrInsufficientHoldings) {
		t.Fatalf("err = %v, want ErrInsufficientHoldings", err)
	}

	if !repo.portfolio.CashBalance.Equal(dec("1000")) {
		t.Errorf("cash changed to %s on failed sell", repo.portfolio.CashBalance)
	}
	if !repo.holdings["BTC"].Quantity.Equal(dec("0.1")) {
		t.Errorf("holding changed on failed sell")
	}
	if len(repo.txns) != 0 {
		t.Errorf("transaction recorded on failed sell")
	}
}

func TestExecuteSellNoHolding(t *testing.T) {
	repo := newFakeRepo("1000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	srv, _, _ := newTestService(repo)

	_, err := srv.ExecuteSell(context.Background(), 1, "BTC", nil, decPtr("0.1"))
	if !errors.Is(err, service.ErrNoHolding) {
		t.Fatalf("err = %v, want ErrNoHolding", err)
	}
}

func TestGetPortfolioSummaryLoss(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.portfolio.CashBalance = dec("0")
	repo.addCrypto("BTC", "bitcoin", "30000")
	repo.holdings["BTC"] = model.HoldingBase{
		Symbol:           "BTC",
		Quantity:         dec("0.1"),
		AvgPurchasePrice: dec("100000"),
		TotalCostBasis:   dec("10000"),
	}
	srv, _, _ := newTestService(repo)

	summary, err := srv.GetPortfolioSummary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.TotalPortfolioValue.Equal(dec("3000")) {
		t.Errorf("total value = %s, want 3000", summary.TotalPortfolioValue)
	}
	if !summary.TotalGainLoss.Equal(dec("-7000")) {
		t.Errorf("gain/loss = %s, want -7000", summary.TotalGainLoss)
	}
	if !summary.TotalGainLossPct.Equal(dec("-70")) {
		t.Errorf("gain/loss pct = %s, want -70", summary.TotalGainLossPct)
	}
}

func TestGetPortfolioSummaryZeroInitialCash(t *testing.T) {
	repo := newFakeRepo("0")
	srv, _, _ := newTestService(repo)

	summary, err := srv.GetPortfolioSummary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.TotalGainLossPct.IsZero() {
		t.Errorf("gain/loss pct = %s, want 0", summary.TotalGainLossPct)
	}
}

func TestSummaryIsReadOnly(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	srv, _, _ := newTestService(repo)

	first, err := srv.GetPortfolioSummary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := srv.GetPortfolioSummary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.TotalPortfolioValue.Equal(second.TotalPortfolioValue) {
		t.Errorf("summary changed between reads: %s vs %s", first.TotalPortfolioValue, second.TotalPortfolioValue)
	}
	if len(repo.txns) != 0 {
		t.Errorf("summary recorded transactions")
	}
}

func TestGetMarketHistoryInvalidTimeframe(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	srv, _, _ := newTestService(repo)

	_, err := srv.GetMarketHistory(context.Background(), "BTC", "2W")
	if !errors.Is(err, service.ErrInvalidTimeframe) {
		t.Fatalf("err = %v, want ErrInvalidTimeframe", err)
	}
}

func TestGetPortfolioHistoryInvalidTimeframe(t *testing.T) {
	repo := newFakeRepo("10000")
	srv, _, _ := newTestService(repo)

	_, err := srv.GetPortfolioHistory(context.Background(), 1, "1Y ago")
	if !errors.Is(err, service.ErrInvalidTimeframe) {
		t.Fatalf("err = %v, want ErrInvalidTimeframe", err)
	}
}

func TestGetPortfolioHistoryReplaysTransactions(t *testing.T) {
	repo := newFakeRepo("5000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	repo.txns = append(repo.txns, model.Transaction{
		ID:        "txn-1",
		Type:      model.TransactionTypeBuy,
		Symbol:    "BTC",
		Quantity:  dec("0.1"),
		CreatedAt: time.Now().UTC().AddDate(0, 0, -10),
	})
	srv, _, coingecko := newTestService(repo)
	coingecko.history = []model.PricePoint{
		{Timestamp: time.Now().UTC().AddDate(0, 0, -20), Price: dec("40000")},
	}

	history, err := srv.GetPortfolioHistory(context.Background(), 1, "1D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if history.Timeframe != "1D" {
		t.Errorf("timeframe = %s, want 1D", history.Timeframe)
	}
	if len(history.Points) == 0 {
		t.Fatal("no history points")
	}

	// cash 5000 + 0.1 BTC at the forward-filled 40000
	want := dec("9000")
	last := history.Points[len(history.Points)-1]
	if !last.Value.Equal(want) {
		t.Errorf("last point value = %s, want %s", last.Value, want)
	}
	for i := 1; i < len(history.Points); i++ {
		if !history.Points[i].Timestamp.After(history.Points[i-1].Timestamp) {
			t.Fatalf("points not in chronological order at %d", i)
		}
	}
}

func TestRefreshPricesBroadcasts(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("BTC", "bitcoin", "50000")
	repo.addCrypto("ETH", "ethereum", "2500")
	broadcaster := &fakeBroadcaster{}
	cache := &fakeCache{}
	coingecko := &fakeCoingecko{quotes: map[string]model.Quote{
		"bitcoin":  {Price: dec("51000"), Change24h: dec("2")},
		"ethereum": {Price: dec("2600"), Change24h: dec("4")},
	}}
	srv := New(&config.Config{}, repo, cache, coingecko, fakeFinnhub{}, &fakeYahoo{}, fakeReportGenerator{}, broadcaster)

	err := srv.RefreshPrices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !repo.cryptos["BTC"].CurrentPrice.Equal(dec("51000")) {
		t.Errorf("BTC price = %s, want 51000", repo.cryptos["BTC"].CurrentPrice)
	}
	if len(broadcaster.updates) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(broadcaster.updates))
	}
	if len(broadcaster.updates[0].Quotes) != 2 {
		t.Errorf("broadcast quotes = %d, want 2", len(broadcaster.updates[0].Quotes))
	}

	// свежие котировки зеркалятся в кеш
	if len(cache.quotes) != 2 {
		t.Fatalf("cached quotes = %d, want 2", len(cache.quotes))
	}
	for _, quote := range cache.quotes {
		if quote.Symbol != "BTC" && quote.Symbol != "ETH" {
			t.Errorf("cached quote with unexpected symbol %q", quote.Symbol)
		}
	}
}

func TestExecuteBuyQuantityStorageScale(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("BTC", "bitcoin", "30000")
	srv, _, _ := newTestService(repo)

	// 5000 / 30000 does not terminate; the booked quantity must carry at
	// most ten decimal places so it matches what the ledger stores
	result, err := srv.ExecuteBuy(context.Background(), 1, "BTC", decPtr("5000"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := dec("0.1666666666")
	if !result.Transaction.Quantity.Equal(want) {
		t.Errorf("quantity = %s, want %s", result.Transaction.Quantity, want)
	}
	if !repo.holdings["BTC"].Quantity.Equal(want) {
		t.Errorf("holding quantity = %s, want %s", repo.holdings["BTC"].Quantity, want)
	}
	if result.Transaction.Quantity.Exponent() < -10 {
		t.Errorf("quantity has %d decimal places, want at most 10", -result.Transaction.Quantity.Exponent())
	}
}

func TestValueConservationAcrossRoundTrip(t *testing.T) {
	repo := newFakeRepo("10000")
	repo.addCrypto("SOL", "solana", "200")
	srv, _, _ := newTestService(repo)

	ctx := context.Background()

	buy, err := srv.ExecuteBuy(ctx, 1, "SOL", decPtr("4000"), nil)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if !buy.Portfolio.TotalPortfolioValue.Equal(dec("10000")) {
		t.Errorf("value after buy = %s, want 10000", buy.Portfolio.TotalPortfolioValue)
	}

	sell, err := srv.ExecuteSell(ctx, 1, "SOL", nil, &buy.Transaction.Quantity)
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if !sell.Portfolio.TotalPortfolioValue.Equal(dec("10000")) {
		t.Errorf("value after round trip = %s, want 10000", sell.Portfolio.TotalPortfolioValue)
	}
	if !sell.Transaction.RealizedGainLoss.IsZero() {
		t.Errorf("realized gain on flat round trip = %s, want 0", sell.Transaction.RealizedGainLoss)
	}
}
