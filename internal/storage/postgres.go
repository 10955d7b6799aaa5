package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"go.uber.org/zap"
)

var (
	ErrConnectionFailed    = errors.New("db connection failed")
	ErrCreatingTableFailed = errors.New("creating table failed")
)

const pgUniqueViolation = "23505"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(databaseURI string) (*Postgres, error) {
	if databaseURI == "" {
		return nil, ErrConnectionFailed
	}

	db, err := sql.Open("pgx", databaseURI)
	if err != nil {
		logger.Log.Error("Error opening database connection", zap.Error(err))
		return nil, ErrConnectionFailed
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY NOT NULL,
			login VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY NOT NULL,
			buyer_id UUID NOT NULL,
			seller_id UUID NOT NULL,
			courier_id UUID,
			total_cents BIGINT NOT NULL CHECK (total_cents >= 0),
			discount_cents BIGINT NOT NULL DEFAULT 0 CHECK (discount_cents >= 0),
			payment_method VARCHAR(10) NOT NULL,
			payment_status VARCHAR(20) NOT NULL,
			status VARCHAR(30) NOT NULL,
			points_awarded BIGINT CHECK (points_awarded >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS delivery_offers (
			id UUID PRIMARY KEY NOT NULL,
			order_id UUID NOT NULL REFERENCES orders(id),
			courier_id UUID,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS delivery_offers_active_order
			ON delivery_offers (order_id)
			WHERE status IN ('accepted', 'picked_up', 'in_transit');`,
		`CREATE TABLE IF NOT EXISTS points_history (
			id UUID PRIMARY KEY NOT NULL,
			user_id UUID NOT NULL,
			order_id UUID,
			seller_id UUID,
			points_earned BIGINT NOT NULL DEFAULT 0 CHECK (points_earned >= 0),
			points_spent BIGINT NOT NULL DEFAULT 0 CHECK (points_spent >= 0),
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (points_earned = 0 OR points_spent = 0)
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS points_history_earning_order
			ON points_history (order_id)
			WHERE points_earned > 0;`,
		`CREATE TABLE IF NOT EXISTS seller_rewards_config (
			seller_id UUID PRIMARY KEY NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			minimum_purchase_cents BIGINT NOT NULL DEFAULT 0,
			point_value_cents BIGINT NOT NULL DEFAULT 0,
			max_redemption_fraction DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			logger.Log.Error("Error creating table", zap.Error(err))
			return nil, ErrCreatingTableFailed
		}
	}

	return &Postgres{db: db}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (p *Postgres) CreateUser(ctx context.Context, user models.User) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash, role) VALUES ($1, $2, $3, $4);
	`, user.ID, user.Login, user.PasswordHash, user.Role)
	if isUniqueViolation(err) {
		return models.ErrDuplicateEntry
	}
	return err
}

func (p *Postgres) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, login, password_hash, role, created_at FROM users WHERE login = $1;
	`, login).Scan(&user.ID, &user.Login, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

const orderColumns = `id, buyer_id, seller_id, courier_id, total_cents, discount_cents,
	payment_method, payment_status, status, points_awarded, created_at, expires_at`

func scanOrder(row interface{ Scan(...any) error }) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.CourierID, &o.TotalCents, &o.DiscountCents,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.PointsAwarded, &o.CreatedAt, &o.ExpiresAt)
	return o, err
}

// lockUserLedger serializes balance checks and appends for one user within
// the surrounding transaction.
func lockUserLedger(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`, userID.String())
	return err
}

func balanceTx(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, userID uuid.UUID) (int64, error) {
	var balance int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points_earned), 0) - COALESCE(SUM(points_spent), 0)
		FROM points_history WHERE user_id = $1;
	`, userID).Scan(&balance)
	return balance, err
}

func (p *Postgres) CreateOrder(ctx context.Context, order models.Order, spend *models.PointsHistoryEntry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if spend != nil {
		if err := lockUserLedger(ctx, tx, spend.UserID); err != nil {
			return err
		}
		balance, err := balanceTx(ctx, tx, spend.UserID)
		if err != nil {
			return err
		}
		if balance < spend.PointsSpent {
			return models.ErrInsufficientBalance
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`, order.ID, order.BuyerID, order.SellerID, order.CourierID, order.TotalCents, order.DiscountCents,
		order.PaymentMethod, order.PaymentStatus, order.Status, order.PointsAwarded, order.CreatedAt, order.ExpiresAt)
	if err != nil {
		return err
	}

	if spend != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO points_history (id, user_id, order_id, seller_id, points_earned, points_spent, description, created_at)
			VALUES ($1, $2, $3, $4, 0, $5, $6, $7);
		`, spend.ID, spend.UserID, spend.OrderID, spend.SellerID, spend.PointsSpent, spend.Description, spend.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *Postgres) GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error) {
	order, err := scanOrder(p.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1;
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, models.ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE orders SET status = $1 WHERE id = $2 AND status = $3;
	`, to, id, from)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

func (p *Postgres) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1 WHERE id = $2 AND payment_status = $3;
	`, to, id, from)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

func (p *Postgres) CompleteOrder(ctx context.Context, id uuid.UUID, points int64, earn *models.PointsHistoryEntry) (int64, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
			status = $1,
			points_awarded = COALESCE(points_awarded, $2),
			payment_status = CASE
				WHEN payment_method = $3 AND payment_status <> $4 THEN $4
				ELSE payment_status
			END
		WHERE id = $5 AND status = $6;
	`, models.OrderCompleted, points, models.PaymentCash, models.PaymentConfirmed, id, models.OrderDelivered)
	if err != nil {
		return 0, false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	if rows == 0 {
		var status models.OrderStatus
		var awarded sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT status, points_awarded FROM orders WHERE id = $1;
		`, id).Scan(&status, &awarded)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, models.ErrNotFound
		}
		if err != nil {
			return 0, false, err
		}
		if status != models.OrderCompleted {
			return 0, false, models.ErrInvalidTransition
		}
		return awarded.Int64, false, tx.Commit()
	}

	if earn != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO points_history (id, user_id, order_id, seller_id, points_earned, points_spent, description, created_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
			ON CONFLICT (order_id) WHERE points_earned > 0 DO NOTHING;
		`, earn.ID, earn.UserID, earn.OrderID, earn.SellerID, earn.PointsEarned, earn.Description, earn.CreatedAt)
		if err != nil {
			return 0, false, err
		}
	}

	return points, true, tx.Commit()
}

func (p *Postgres) ExpiredUnpaidOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status IN ($1, $2)
		  AND payment_status <> $3
		  AND expires_at IS NOT NULL AND expires_at < $4;
	`, models.OrderPending, models.OrderSellerConfirmed, models.PaymentConfirmed, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (p *Postgres) CreateOffer(ctx context.Context, offer models.DeliveryOffer) error {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO delivery_offers (id, order_id, courier_id, status, created_at)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM delivery_offers
			WHERE order_id = $2 AND status IN ($6, $7, $8)
		);
	`, offer.ID, offer.OrderID, offer.CourierID, offer.Status, offer.CreatedAt,
		models.OfferAccepted, models.OfferPickedUp, models.OfferInTransit)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrConflictingOffer
	}
	return nil
}

func (p *Postgres) GetOffer(ctx context.Context, id uuid.UUID) (models.DeliveryOffer, error) {
	var offer models.DeliveryOffer
	err := p.db.QueryRowContext(ctx, `
		SELECT id, order_id, courier_id, status, created_at FROM delivery_offers WHERE id = $1;
	`, id).Scan(&offer.ID, &offer.OrderID, &offer.CourierID, &offer.Status, &offer.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeliveryOffer{}, models.ErrNotFound
	}
	if err != nil {
		return models.DeliveryOffer{}, err
	}
	return offer, nil
}

func (p *Postgres) AcceptOffer(ctx context.Context, offerID, courierID uuid.UUID) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var orderID uuid.UUID
	var status models.OfferStatus
	err = tx.QueryRowContext(ctx, `
		SELECT order_id, status FROM delivery_offers WHERE id = $1;
	`, offerID).Scan(&orderID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}
	if status != models.OfferPending {
		return models.ErrInvalidTransition
	}

	var conflicting bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM delivery_offers
			WHERE order_id = $1 AND id <> $2 AND status IN ($3, $4, $5)
		);
	`, orderID, offerID, models.OfferAccepted, models.OfferPickedUp, models.OfferInTransit).Scan(&conflicting)
	if err != nil {
		return err
	}
	if conflicting {
		return models.ErrConflictingOffer
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE delivery_offers SET status = $1, courier_id = $2
		WHERE id = $3 AND status = $4;
	`, models.OfferAccepted, courierID, offerID, models.OfferPending)
	if isUniqueViolation(err) {
		// Lost the race against a sibling offer's accept.
		return models.ErrConflictingOffer
	}
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET courier_id = $1 WHERE id = $2 AND courier_id IS NULL;
	`, courierID, orderID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) UpdateOfferStatus(ctx context.Context, id uuid.UUID, from, to models.OfferStatus) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE delivery_offers SET status = $1 WHERE id = $2 AND status = $3;
	`, to, id, from)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

func (p *Postgres) OrphanedPendingOffers(ctx context.Context) ([]models.DeliveryOffer, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT o.id, o.order_id, o.courier_id, o.status, o.created_at
		FROM delivery_offers o
		JOIN orders ord ON ord.id = o.order_id
		WHERE o.status = $1
		  AND (
			ord.status IN ($2, $3, $4, $5)
			OR EXISTS (
				SELECT 1 FROM delivery_offers s
				WHERE s.order_id = o.order_id AND s.id <> o.id AND s.status IN ($6, $7, $8)
			)
		  );
	`, models.OfferPending,
		models.OrderDelivered, models.OrderCompleted, models.OrderCancelledNoPayment, models.OrderCancelledPaymentRejected,
		models.OfferAccepted, models.OfferPickedUp, models.OfferInTransit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []models.DeliveryOffer
	for rows.Next() {
		var offer models.DeliveryOffer
		if err := rows.Scan(&offer.ID, &offer.OrderID, &offer.CourierID, &offer.Status, &offer.CreatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (p *Postgres) AvailableBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return balanceTx(ctx, p.db, userID)
}

func (p *Postgres) AppendEarning(ctx context.Context, entry models.PointsHistoryEntry) error {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO points_history (id, user_id, order_id, seller_id, points_earned, points_spent, description, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		ON CONFLICT (order_id) WHERE points_earned > 0 DO NOTHING;
	`, entry.ID, entry.UserID, entry.OrderID, entry.SellerID, entry.PointsEarned, entry.Description, entry.CreatedAt)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrDuplicateEntry
	}
	return nil
}

func (p *Postgres) AppendSpending(ctx context.Context, entry models.PointsHistoryEntry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockUserLedger(ctx, tx, entry.UserID); err != nil {
		return err
	}
	balance, err := balanceTx(ctx, tx, entry.UserID)
	if err != nil {
		return err
	}
	if balance < entry.PointsSpent {
		return models.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO points_history (id, user_id, order_id, seller_id, points_earned, points_spent, description, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7);
	`, entry.ID, entry.UserID, entry.OrderID, entry.SellerID, entry.PointsSpent, entry.Description, entry.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) UserHistory(ctx context.Context, userID uuid.UUID) ([]models.PointsHistoryEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, order_id, seller_id, points_earned, points_spent, description, created_at
		FROM points_history WHERE user_id = $1 ORDER BY created_at;
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PointsHistoryEntry
	for rows.Next() {
		var e models.PointsHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrderID, &e.SellerID, &e.PointsEarned, &e.PointsSpent, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) NegativeBalances(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id FROM points_history
		GROUP BY user_id
		HAVING COALESCE(SUM(points_earned), 0) - COALESCE(SUM(points_spent), 0) < 0;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (p *Postgres) GetRewardsConfig(ctx context.Context, sellerID uuid.UUID) (models.SellerRewardsConfig, error) {
	var cfg models.SellerRewardsConfig
	err := p.db.QueryRowContext(ctx, `
		SELECT seller_id, is_active, minimum_purchase_cents, point_value_cents, max_redemption_fraction
		FROM seller_rewards_config WHERE seller_id = $1;
	`, sellerID).Scan(&cfg.SellerID, &cfg.IsActive, &cfg.MinimumPurchaseCents, &cfg.PointValueCents, &cfg.MaxRedemptionFraction)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SellerRewardsConfig{}, models.ErrConfigUnavailable
	}
	if err != nil {
		return models.SellerRewardsConfig{}, err
	}
	return cfg, nil
}

func (p *Postgres) UpsertRewardsConfig(ctx context.Context, cfg models.SellerRewardsConfig) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO seller_rewards_config (seller_id, is_active, minimum_purchase_cents, point_value_cents, max_redemption_fraction)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (seller_id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			minimum_purchase_cents = EXCLUDED.minimum_purchase_cents,
			point_value_cents = EXCLUDED.point_value_cents,
			max_redemption_fraction = EXCLUDED.max_redemption_fraction;
	`, cfg.SellerID, cfg.IsActive, cfg.MinimumPurchaseCents, cfg.PointValueCents, cfg.MaxRedemptionFraction)
	return err
}
