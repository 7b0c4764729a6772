package export

import (
	"context"
	"database/sql"

	"orderharvest/services/harvest"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Push writes the records of one year. re-exporting is idempotent: an
// order that is already present is rewritten in place, its item and
// link rows are replaced wholesale.
func (s Store) Push(ctx context.Context, year int, records []harvest.OrderRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, year, date, total_amount, shipping_name, shipping_address, payment_instrument)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				year = excluded.year,
				date = excluded.date,
				total_amount = excluded.total_amount,
				shipping_name = excluded.shipping_name,
				shipping_address = excluded.shipping_address,
				payment_instrument = excluded.payment_instrument`,
			r.Id, year, r.Date, r.TotalAmount, r.ShippingName, r.ShippingAddress, r.PaymentInstrument,
		)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, r.Id)
		if err != nil {
			return err
		}
		for i, item := range r.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, position, title, asin, merchant, merchant_id, quantity, unit_price)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.Id, i, item.Title, item.Asin, item.Merchant, item.MerchantId, item.Quantity, item.UnitPrice,
			)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM invoice_links WHERE order_id = ?`, r.Id)
		if err != nil {
			return err
		}
		for i, link := range r.InvoiceLinks {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO invoice_links (order_id, position, name, url)
				VALUES (?, ?, ?, ?)`,
				r.Id, i, link.Name, link.Url,
			)
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Pull reads the records of one year back out, in id order.
func (s Store) Pull(ctx context.Context, year int) ([]harvest.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, total_amount, shipping_name, shipping_address, payment_instrument
		FROM orders WHERE year = ? ORDER BY id`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []harvest.OrderRecord
	for rows.Next() {
		var r harvest.OrderRecord
		err = rows.Scan(&r.Id, &r.Date, &r.TotalAmount, &r.ShippingName, &r.ShippingAddress, &r.PaymentInstrument)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i].Items, err = s.pullItems(ctx, records[i].Id)
		if err != nil {
			return nil, err
		}
		records[i].InvoiceLinks, err = s.pullLinks(ctx, records[i].Id)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s Store) pullItems(ctx context.Context, orderId string) ([]harvest.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, asin, merchant, merchant_id, quantity, unit_price
		FROM order_items WHERE order_id = ? ORDER BY position`, orderId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []harvest.OrderItem{}
	for rows.Next() {
		item := harvest.OrderItem{OrderId: orderId}
		err = rows.Scan(&item.Title, &item.Asin, &item.Merchant, &item.MerchantId, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s Store) pullLinks(ctx context.Context, orderId string) ([]harvest.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, url
		FROM invoice_links WHERE order_id = ? ORDER BY position`, orderId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []harvest.Link{}
	for rows.Next() {
		var link harvest.Link
		err = rows.Scan(&link.Name, &link.Url)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}
