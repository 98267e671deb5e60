package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkCreateCustomersPartialSuccess(t *testing.T) {
	svc, store, pub := newTestService()
	store.seedCustomer("Existing", "taken@example.com")

	res, err := svc.BulkCreateCustomers(context.Background(), []CustomerInput{
		{Name: "One", Email: "one@example.com"},
		{Name: "Dup", Email: "TAKEN@example.com"},
		{Name: "Three", Email: "three@example.com"},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.CreatedCustomers, 2)
	assert.Equal(t, "one@example.com", res.CreatedCustomers[0].Email)
	assert.Equal(t, "three@example.com", res.CreatedCustomers[1].Email)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "customers[1].email", res.Errors[0].Field)
	assert.Contains(t, res.Message, "2 of 3")

	assert.Len(t, store.st.customers, 3)
	assert.Len(t, pub.events, 2)
}

func TestBulkCreateCustomersIndexesEveryError(t *testing.T) {
	svc, _, _ := newTestService()

	res, err := svc.BulkCreateCustomers(context.Background(), []CustomerInput{
		{Name: "", Email: "bad", Phone: "x"},
		{Name: "Ok", Email: "ok@example.com"},
	})
	require.NoError(t, err)
	assert.Len(t, res.CreatedCustomers, 1)
	assert.True(t, res.Errors.Has("customers[0].name"))
	assert.True(t, res.Errors.Has("customers[0].email"))
	assert.True(t, res.Errors.Has("customers[0].phone"))
}

func TestBulkCreateCustomersSequentialWithinBatch(t *testing.T) {
	svc, store, _ := newTestService()

	// no cross-item check: the second item fails only because the first was
	// persisted before it was processed
	res, err := svc.BulkCreateCustomers(context.Background(), []CustomerInput{
		{Name: "A", Email: "same@example.com"},
		{Name: "B", Email: "Same@Example.com"},
	})
	require.NoError(t, err)
	require.Len(t, res.CreatedCustomers, 1)
	assert.Equal(t, "A", res.CreatedCustomers[0].Name)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "customers[1].email", res.Errors[0].Field)
	assert.Len(t, store.st.customers, 1)
}

func TestBulkCreateCustomersIsolatesWriteFailures(t *testing.T) {
	svc, store, _ := newTestService()
	store.failEmail["race@example.com"] = ErrDuplicateEmail
	store.failEmail["down@example.com"] = errors.New("connection reset")

	res, err := svc.BulkCreateCustomers(context.Background(), []CustomerInput{
		{Name: "A", Email: "a@example.com"},
		{Name: "Race", Email: "race@example.com"},
		{Name: "Down", Email: "down@example.com"},
		{Name: "D", Email: "d@example.com"},
	})
	require.NoError(t, err)

	assert.Len(t, res.CreatedCustomers, 2)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "customers[1].email", res.Errors[0].Field)
	assert.Equal(t, "customers[2]", res.Errors[1].Field)
	assert.Contains(t, res.Errors[1].Message, "connection reset")

	assert.Len(t, store.st.customers, 2)
	assert.Equal(t, 2, store.commits)
	assert.Equal(t, 2, store.rollbacks)
}

func TestBulkCreateCustomersAllValid(t *testing.T) {
	svc, _, _ := newTestService()

	res, err := svc.BulkCreateCustomers(context.Background(), []CustomerInput{
		{Name: "A", Email: "a@example.com"},
		{Name: "B", Email: "b@example.com", Phone: "123-456-7890"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Len(t, res.CreatedCustomers, 2)
	assert.Contains(t, res.Message, "0 failed")
}
