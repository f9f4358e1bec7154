package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sangkips/tabsettle-api/internal/domain/enum"
)

func TestBuildReceiptUsesTenantCurrency(t *testing.T) {
	f := newFixture(t, 1600)
	order := f.readyOrder(10000)
	if _, err := f.pay(order.ID, enum.PaymentProviderCash, cents(12000), 0); err != nil {
		t.Fatal(err)
	}

	r := BuildReceipt(f.tenant, f.reload(order.ID))
	if r.SubTotal != "100.00" || r.Tax != "16.00" || r.Total != "KES 116.00" || r.Due != "0.00" {
		t.Fatalf("receipt = %+v", r)
	}
	if len(r.Payments) != 1 || r.Payments[0].Provider != "CASH" || r.Payments[0].Change != "4.00" {
		t.Fatalf("payments = %+v", r.Payments)
	}
	if r.Header.StoreName != "Test Bistro" {
		t.Fatalf("header = %+v", r.Header)
	}
}

func TestPrintOrderReceipt(t *testing.T) {
	f := newFixture(t, 0)
	order := f.readyOrder(2500)

	receipt, err := f.printer.PrintOrderReceipt(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("PrintOrderReceipt: %v", err)
	}
	jobs := f.spool.Jobs()
	if !bytes.Contains(jobs[len(jobs)-1], []byte(receipt.OrderNo)) {
		t.Fatal("printed receipt does not carry the order number")
	}
}

func TestPrinterFailureDoesNotFailSettlement(t *testing.T) {
	f := newFixture(t, 0)
	order := f.readyOrder(1000)
	f.spool.Err = errors.New("paper out")

	res, err := f.pay(order.ID, enum.PaymentProviderCash, nil, 0)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if !res.IsFullyPaid {
		t.Fatal("order not paid")
	}

	if _, err := f.printer.PrintOrderReceipt(f.ctx, order.ID); err == nil {
		t.Fatal("explicit reprint should report the printer error")
	}
}

func TestPrinterStatus(t *testing.T) {
	f := newFixture(t, 0)
	status := f.printer.GetStatus()
	if !status.Configured || !status.Connected || status.CharWidth != 32 {
		t.Fatalf("status = %+v", status)
	}

	if _, err := f.printer.TestPrint(f.ctx); err != nil {
		t.Fatalf("TestPrint: %v", err)
	}
}
