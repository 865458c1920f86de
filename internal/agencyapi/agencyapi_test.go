package agencyapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestNoAgency_failsWithoutRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pdf := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 64)...)

	calls := map[string]func() error{
		"Please select an agency to view customers": func() error {
			_, err := f.svc.Customers.List(ctx)
			return err
		},
		"Please select an agency to view business details": func() error {
			_, err := f.svc.Businesses.Get(ctx, 10)
			return err
		},
		"Please select an agency to create policies": func() error {
			_, err := f.svc.Policies.Create(ctx, models.PolicyInput{Business: ptr[int64](10)})
			return err
		},
		"Please select an agency to update businesses": func() error {
			_, err := f.svc.Businesses.Update(ctx, 10, models.BusinessInput{Name: ptr("x")})
			return err
		},
		"Please select an agency to delete customers": func() error {
			return f.svc.Customers.Delete(ctx, 1)
		},
		"Please select an agency to view business policies": func() error {
			_, err := f.svc.BusinessPolicies(ctx, 10)
			return err
		},
		"Please select an agency to view business documents": func() error {
			_, err := f.svc.BusinessDocuments(ctx, 10)
			return err
		},
		"Please select an agency to upload documents": func() error {
			return f.svc.UploadDocument(ctx, 1, Upload{FileName: "a.pdf", Data: pdf})
		},
		"Please select an agency to remove documents": func() error {
			return f.svc.RemoveDocument(ctx, 1, 5)
		},
		"Please select an agency to generate renewal comparison": func() error {
			_, err := f.svc.GenerateRenewalComparison(ctx, 1, "")
			return err
		},
	}

	for msg, call := range calls {
		t.Run(msg, func(t *testing.T) {
			err := call()
			require.ErrorIs(t, err, ErrNoAgency)
			assert.Equal(t, msg, err.Error())
		})
	}

	_, err := f.svc.Guard()
	require.ErrorIs(t, err, ErrNoAgency)

	assert.Zero(t, f.fake.requests.Load())
}

func TestCustomers_createThenList(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	ctx := context.Background()

	in := models.CustomerInput{
		FirstName:   ptr("Ann"),
		LastName:    ptr("Lee"),
		Email:       ptr("ann@example.com"),
		PhoneNumber: ptr("555-0100"),
	}

	created, err := f.svc.Customers.Create(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	list, err := f.svc.Customers.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ann", got.FirstName)
	assert.Equal(t, "Lee", got.LastName)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "555-0100", got.PhoneNumber)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, int64(3), *got.Agency)

	// other agencies do not see it
	f.tenant.set(4)
	list, err = f.svc.Customers.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCustomers_updateAndGet(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	ctx := context.Background()

	created, err := f.svc.Customers.Create(ctx, models.CustomerInput{
		FirstName: ptr("Ann"), LastName: ptr("Lee"), Email: ptr("ann@example.com"), PhoneNumber: ptr("1"),
	})
	require.NoError(t, err)

	updated, err := f.svc.Customers.Update(ctx, created.ID, models.CustomerInput{LastName: ptr("Park")})
	require.NoError(t, err)
	assert.Equal(t, "Park", updated.LastName)
	assert.Equal(t, "Ann", updated.FirstName)

	got, err := f.svc.Customers.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Park", got.LastName)

	missing, err := f.svc.Customers.Get(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreate_validation(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	ctx := context.Background()

	_, err := f.svc.Customers.Create(ctx, models.CustomerInput{FirstName: ptr("Ann"), Email: ptr("not-an-email")})
	require.Error(t, err)
	var inputErr *models.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, []string{"last_name", "phone_number"}, inputErr.Fields)

	_, err = f.svc.Policies.Update(ctx, 1, models.PolicyInput{
		EffectiveDate:  ptr("2025-06-01"),
		ExpirationDate: ptr("2025-01-01"),
	})
	require.ErrorIs(t, err, models.ErrPolicyDates)

	_, err = f.svc.Policies.Create(ctx, models.PolicyInput{Business: ptr[int64](1), PolicyType: ptr("pet_insurance")})
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, []string{"policy_type"}, inputErr.Fields)

	_, err = f.svc.Policies.Create(ctx, models.PolicyInput{Business: ptr[int64](1), AnnualPremium: ptr(decimal.NewFromInt(-5))})
	require.ErrorAs(t, err, &inputErr)

	assert.Zero(t, f.fake.requests.Load())

	// server side field errors come back verbatim
	_, err = f.svc.Customers.Create(ctx, models.CustomerInput{
		FirstName: ptr("Ann"), LastName: ptr("Lee"), Email: ptr("taken@example.com"), PhoneNumber: ptr("1"),
	})
	require.Error(t, err)
	assert.Equal(t, client.KindValidation, client.KindOf(err))
	assert.Equal(t, "email: customer with this email already exists.", err.Error())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	ctx := context.Background()

	created, err := f.svc.Customers.Create(ctx, models.CustomerInput{
		FirstName: ptr("Ann"), LastName: ptr("Lee"), Email: ptr("ann@example.com"), PhoneNumber: ptr("1"),
	})
	require.NoError(t, err)

	f.fake.deleteStatus = http.StatusInternalServerError
	err = f.svc.Customers.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "Failed to delete customer", err.Error())

	list, err := f.svc.Customers.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.fake.deleteStatus = 0
	require.NoError(t, f.svc.Customers.Delete(ctx, created.ID))

	list, err = f.svc.Customers.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	f.fake.unauthorized.Store(true)

	list, err := f.svc.Customers.List(context.Background())
	require.Error(t, err)
	assert.Nil(t, list)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "Please login to view customers", err.Error())
	assert.Equal(t, int32(1), f.authed.Load())

	err = f.svc.Policies.Delete(context.Background(), 1)
	assert.Equal(t, "Please login to delete policies", err.Error())
}

func TestConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	api, err := client.New(client.Config{ServerURL: addr})
	require.NoError(t, err)

	tn := &tenant{}
	tn.set(1)
	svc, err := New(api, tn)
	require.NoError(t, err)

	_, err = svc.Businesses.List(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsConnectivity(err))
	assert.Contains(t, err.Error(), "Failed to fetch businesses.")
	assert.Contains(t, err.Error(), "Please ensure the server is running.")
}

func TestStaleAgency(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)

	// the selection moves while the list request is in flight
	f.fake.onList = func() { f.tenant.set(4) }

	list, err := f.svc.Customers.List(context.Background())
	require.ErrorIs(t, err, ErrStaleAgency)
	assert.Nil(t, list)

	f.fake.onList = nil
	g, err := f.svc.Guard()
	require.NoError(t, err)
	assert.Equal(t, int64(4), g.AgencyID())
	require.NoError(t, g.Commit(context.Background()))

	f.tenant.set(5)
	assert.False(t, g.Current())
	require.ErrorIs(t, g.Commit(context.Background()), ErrStaleAgency)
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	ctx := context.Background()

	pdf := make([]byte, MaxUploadSize)
	copy(pdf, "%PDF-1.4\n")

	require.NoError(t, f.svc.UploadDocument(ctx, 7, Upload{FileName: "/tmp/binder.pdf", Data: pdf, Name: "Binder"}))
	require.Len(t, f.fake.uploads, 1)
	assert.Equal(t, upload{name: "Binder", fileName: "binder.pdf", contentType: "application/pdf", size: MaxUploadSize, agencyID: "3"}, f.fake.uploads[0])

	requests := f.fake.requests.Load()

	big := make([]byte, MaxUploadSize+1)
	copy(big, "%PDF-1.4\n")
	err := f.svc.UploadDocument(ctx, 7, Upload{FileName: "big.pdf", Data: big})
	require.ErrorIs(t, err, ErrFileTooLarge)

	err = f.svc.UploadDocument(ctx, 7, Upload{FileName: "run.sh", Data: []byte("#!/bin/sh\necho hi\n")})
	require.ErrorIs(t, err, ErrUnsupportedType)

	err = f.svc.UploadDocument(ctx, 7, Upload{FileName: "empty.pdf"})
	require.ErrorIs(t, err, ErrEmptyFile)

	assert.Equal(t, requests, f.fake.requests.Load())
}

func TestDetectType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	got, err := DetectType(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", got)

	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	got, err = DetectType(jpeg)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", got)

	_, err = DetectType([]byte("plain text"))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRemoveDocument(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)

	require.NoError(t, f.svc.RemoveDocument(context.Background(), 7, 5))
	assert.Equal(t, []int64{5}, f.fake.removed)
}

func TestGetBusinessDetail(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)

	detail, err := f.svc.GetBusinessDetail(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Acme Hardware", detail.Business.Name)
	require.Len(t, detail.Policies, 2)
	assert.Equal(t, "1500.00", detail.Policies[0].Premium().StringFixed(2))
	require.Len(t, detail.Documents, 1)
	assert.NotNil(t, detail.Documents[0].AddedAt())

	detail, err = f.svc.GetBusinessDetail(context.Background(), 11)
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestGenerateRenewalComparison(t *testing.T) {
	f := newFixture(t)
	f.tenant.set(3)
	ctx := context.Background()

	rc, err := f.svc.GenerateRenewalComparison(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOpenAI, rc.AIProvider)
	assert.Equal(t, "# Comparison", rc.Attachment)

	rc, err = f.svc.GenerateRenewalComparison(ctx, 1, models.ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAnthropic, rc.AIProvider)

	requests := f.fake.requests.Load()
	_, err = f.svc.GenerateRenewalComparison(ctx, 1, "gemini")
	require.Error(t, err)
	assert.Equal(t, requests, f.fake.requests.Load())
}
