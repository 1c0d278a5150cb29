package utils

import (
	"strings"
	"testing"
	"time"
)

type testBank struct {
	AccountHolder string `validate:"required"`
	AccountNumber string `validate:"required,digits"`
}

type testForm struct {
	Name    string `validate:"required"`
	Bank    testBank
	BankPtr *testBank
	When    time.Time
}

func TestValidateStruct_NestedNamedStruct(t *testing.T) {
	err := ValidateStruct(&testForm{Name: "x"})
	if err == nil {
		t.Fatal("expected empty nested bank details to be rejected")
	}
	if !strings.Contains(err.Error(), "AccountHolder") {
		t.Fatalf("expected AccountHolder error, got %v", err)
	}

	err = ValidateStruct(&testForm{
		Name: "x",
		Bank: testBank{AccountHolder: "A", AccountNumber: "123"},
	})
	if err != nil {
		t.Fatalf("complete nested struct should pass, got %v", err)
	}
}

func TestValidateStruct_NestedStructPointer(t *testing.T) {
	form := &testForm{
		Name:    "x",
		Bank:    testBank{AccountHolder: "A", AccountNumber: "123"},
		BankPtr: &testBank{AccountHolder: "B", AccountNumber: "abc"},
	}
	err := ValidateStruct(form)
	if err == nil || !strings.Contains(err.Error(), "AccountNumber") {
		t.Fatalf("expected digits failure from pointed-to struct, got %v", err)
	}

	form.BankPtr = nil
	if err := ValidateStruct(form); err != nil {
		t.Fatalf("nil nested pointer should be skipped, got %v", err)
	}
}

func TestValidateStruct_NestedDigitsRule(t *testing.T) {
	err := ValidateStruct(&testForm{
		Name: "x",
		Bank: testBank{AccountHolder: "A", AccountNumber: "12-34"},
	})
	if err == nil || !strings.Contains(err.Error(), "digits") {
		t.Fatalf("expected digits rule to apply inside nested struct, got %v", err)
	}
}
