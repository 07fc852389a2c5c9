package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/models"
	"bitbucket.org/mmdatafocus/erp_backend/utils"
	"bitbucket.org/mmdatafocus/erp_backend/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func setupIntegrationEnv(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "erp_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetBusinessIdInContext(ctx, uuid.NewString())
	return ctx
}

func TestSequenceAllocatorAllocatesUniqueContiguousNumbers(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	// First touch of a namespace creates the counter lazily at its start value.
	peeked, err := models.PeekNextNumber(ctx, "sales")
	if err != nil {
		t.Fatalf("PeekNextNumber: %v", err)
	}
	if peeked != "001000" {
		t.Fatalf("expected first peek to be 001000, got %s", peeked)
	}

	// Peeking never consumes.
	peeked2, err := models.PeekNextNumber(ctx, "sales")
	if err != nil {
		t.Fatalf("PeekNextNumber: %v", err)
	}
	if peeked2 != peeked {
		t.Fatalf("peek consumed a value: %s then %s", peeked, peeked2)
	}

	const workers = 25
	results := make(chan string, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := models.NextNumber(ctx, "sales")
			if err != nil {
				errs <- err
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("NextNumber under concurrency: %v", err)
	}

	seen := map[string]bool{}
	for number := range results {
		if seen[number] {
			t.Fatalf("duplicate number allocated: %s", number)
		}
		seen[number] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d allocated numbers, got %d", workers, len(seen))
	}
	// Gap-free: exactly 001000..001024 were handed out.
	for v := int64(1000); v < 1000+workers; v++ {
		number := models.FormatSequenceValue(v, 6)
		if !seen[number] {
			t.Fatalf("expected %s to be allocated, allocated set has a gap", number)
		}
	}

	next, err := models.PeekNextNumber(ctx, "sales")
	if err != nil {
		t.Fatalf("PeekNextNumber: %v", err)
	}
	if next != models.FormatSequenceValue(1000+workers, 6) {
		t.Fatalf("expected next value %s after %d allocations, got %s",
			models.FormatSequenceValue(1000+workers, 6), workers, next)
	}

	// Namespaces advance independently.
	code, err := models.NextNumber(ctx, "customers")
	if err != nil {
		t.Fatalf("NextNumber(customers): %v", err)
	}
	if code != "050000000" {
		t.Fatalf("expected first customer code 050000000, got %s", code)
	}
}

func TestCustomerStatementComputesAndWritesBackBalance(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Acme Trading"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.Code != "050000000" {
		t.Fatalf("expected customer code 050000000, got %s", customer.Code)
	}

	invoiceDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if _, err := models.CreateSalesInvoice(ctx, &models.NewSalesInvoice{
		CustomerId:         customer.ID,
		InvoiceDate:        invoiceDate,
		InvoiceTotalAmount: decimal.NewFromInt(800),
	}); err != nil {
		t.Fatalf("CreateSalesInvoice: %v", err)
	}
	if _, err := models.CreateCustomerPayment(ctx, &models.NewCustomerPayment{
		CustomerId:  customer.ID,
		PaymentDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(500),
	}); err != nil {
		t.Fatalf("CreateCustomerPayment: %v", err)
	}
	if _, err := models.CreateCustomerNote(ctx, &models.NewCustomerNote{
		CustomerId: customer.ID,
		NoteType:   models.NoteTypeCredit,
		NoteDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		NoteTotal:  decimal.NewFromInt(100),
	}); err != nil {
		t.Fatalf("CreateCustomerNote: %v", err)
	}

	// A narrowed view must not rewrite the stored balance.
	from := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	filtered, err := models.GetCustomerStatement(ctx, customer.ID, models.StatementFilter{FromDate: &from}, 1, 0)
	if err != nil {
		t.Fatalf("GetCustomerStatement(filtered): %v", err)
	}
	if len(filtered.Transactions) != 2 {
		t.Fatalf("expected 2 transactions after the from date, got %d", len(filtered.Transactions))
	}
	refetched, err := models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if !refetched.CurrentBalance.IsZero() {
		t.Fatalf("filtered statement rewrote the stored balance to %s", refetched.CurrentBalance)
	}

	// The unfiltered view rewrites the stored balance from the full history.
	statement, err := models.GetCustomerStatement(ctx, customer.ID, models.StatementFilter{}, 1, 0)
	if err != nil {
		t.Fatalf("GetCustomerStatement: %v", err)
	}
	if statement.TotalCount != 3 {
		t.Fatalf("expected 3 transactions, got %d", statement.TotalCount)
	}
	if statement.Summary.EndingBalance.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("expected ending balance 200, got %s", statement.Summary.EndingBalance)
	}
	// Default display order is newest first; the running balance stays chronological.
	if statement.Transactions[0].Balance.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("expected newest row to carry the ending balance, got %s", statement.Transactions[0].Balance)
	}
	refetched, err = models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if refetched.CurrentBalance.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("expected stored balance 200 after unfiltered statement, got %s", refetched.CurrentBalance)
	}
}

func TestRecalculateBalancesConvergesAndIsIdempotent(t *testing.T) {
	ctx := setupIntegrationEnv(t)
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Drift Customer"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Name:           "Steady Supplier",
		OpeningBalance: decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	if _, err := models.CreateSalesInvoice(ctx, &models.NewSalesInvoice{
		CustomerId:         customer.ID,
		InvoiceDate:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		InvoiceTotalAmount: decimal.NewFromInt(950),
	}); err != nil {
		t.Fatalf("CreateSalesInvoice: %v", err)
	}

	// A deactivated party with a drifted balance must be skipped by the job.
	dormant, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Dormant Customer"})
	if err != nil {
		t.Fatalf("CreateCustomer(dormant): %v", err)
	}
	if _, err := models.ToggleActiveCustomer(ctx, dormant.ID, false); err != nil {
		t.Fatalf("ToggleActiveCustomer: %v", err)
	}

	// Drift the stored balances behind the transactions, bypassing the tenant
	// guard the way an out-of-band write would.
	db := config.GetDB()
	rawCtx := utils.SetSkipTenantScopeInContext(ctx, true)
	if err := db.WithContext(rawCtx).Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		UpdateColumn("current_balance", decimal.NewFromInt(123)).Error; err != nil {
		t.Fatalf("seed drifted balance: %v", err)
	}
	if err := db.WithContext(rawCtx).Model(&models.Customer{}).
		Where("id = ?", dormant.ID).
		UpdateColumn("current_balance", decimal.NewFromInt(777)).Error; err != nil {
		t.Fatalf("seed drifted dormant balance: %v", err)
	}

	report, err := workflow.RecalculateBalances(ctx, workflow.RecalcOptions{BusinessId: businessId})
	if err != nil {
		t.Fatalf("RecalculateBalances: %v", err)
	}
	if report.TotalParties != 2 {
		t.Fatalf("expected 2 parties, got %d", report.TotalParties)
	}
	if report.UpdatedCount != 1 {
		t.Fatalf("expected 1 updated party, got %d (updated: %v)", report.UpdatedCount, report.Updated)
	}
	if report.FailedCount != 0 {
		t.Fatalf("expected no failures, got %d", report.FailedCount)
	}

	refetched, err := models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if refetched.CurrentBalance.Cmp(decimal.NewFromInt(950)) != 0 {
		t.Fatalf("expected recalculated balance 950, got %s", refetched.CurrentBalance)
	}
	refetchedDormant, err := models.GetCustomer(ctx, dormant.ID)
	if err != nil {
		t.Fatalf("GetCustomer(dormant): %v", err)
	}
	if refetchedDormant.CurrentBalance.Cmp(decimal.NewFromInt(777)) != 0 {
		t.Fatalf("inactive customer was recalculated, balance is %s", refetchedDormant.CurrentBalance)
	}
	refetchedSupplier, err := models.GetSupplier(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("GetSupplier: %v", err)
	}
	if refetchedSupplier.CurrentBalance.Cmp(decimal.NewFromInt(1500)) != 0 {
		t.Fatalf("expected supplier balance to stay 1500, got %s", refetchedSupplier.CurrentBalance)
	}

	// Second run finds nothing to change.
	second, err := workflow.RecalculateBalances(ctx, workflow.RecalcOptions{BusinessId: businessId})
	if err != nil {
		t.Fatalf("RecalculateBalances(second): %v", err)
	}
	if second.UpdatedCount != 0 {
		t.Fatalf("expected second run to update nothing, updated %d (updated: %v)", second.UpdatedCount, second.Updated)
	}
	if second.UnchangedCount != 2 {
		t.Fatalf("expected 2 unchanged parties on second run, got %d", second.UnchangedCount)
	}

	// Explicitly listed ids are recalculated even when deactivated.
	byId, err := workflow.RecalculateBalances(ctx, workflow.RecalcOptions{
		BusinessId: businessId,
		PartyKind:  workflow.PartyKindCustomers,
		PartyIds:   []int{dormant.ID},
	})
	if err != nil {
		t.Fatalf("RecalculateBalances(by id): %v", err)
	}
	if byId.TotalParties != 1 || byId.UpdatedCount != 1 {
		t.Fatalf("expected the deactivated customer to be recalculated by id, got %+v", byId)
	}
	refetchedDormant, err = models.GetCustomer(ctx, dormant.ID)
	if err != nil {
		t.Fatalf("GetCustomer(dormant): %v", err)
	}
	if !refetchedDormant.CurrentBalance.IsZero() {
		t.Fatalf("expected dormant balance to converge to 0, got %s", refetchedDormant.CurrentBalance)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("erp-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("erp-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=erp_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
