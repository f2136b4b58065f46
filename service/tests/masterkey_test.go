package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/homegate/errs"
	"github.com/zlnvch/homegate/models"
	"github.com/zlnvch/homegate/service"
)

func TestMasterKeyCRUD(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()
	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	user := registerUser(t, svc, "alice")

	view, err := svc.AddMasterKey(ctx, user, models.MasterKeyFile, "backup box", "https://backup.example", "raw-credential")
	assert.NoError(t, err)
	assert.NotEmpty(t, view.Id)
	assert.Equal(t, "backup box", view.Name)

	got, err := svc.GetMasterKey(ctx, user, view.Id)
	assert.NoError(t, err)
	assert.Equal(t, view, got)

	renamed, err := svc.UpdateMasterKey(ctx, user, view.Id, "cold storage")
	assert.NoError(t, err)
	assert.Equal(t, "cold storage", renamed.Name)

	keys, err := svc.ListMasterKeys(ctx, user)
	assert.NoError(t, err)
	assert.Len(t, keys, 1)

	assert.NoError(t, svc.DeleteMasterKey(ctx, user, view.Id))

	_, err = svc.GetMasterKey(ctx, user, view.Id)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestMasterKeyInvalidInput(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()
	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	user := registerUser(t, svc, "alice")

	_, err := svc.AddMasterKey(ctx, user, "tape", "", "https://backup.example", "raw")
	assert.True(t, errs.Is(err, errs.KindMalformed))

	_, err = svc.AddMasterKey(ctx, user, models.MasterKeyFile, "", "", "raw")
	assert.True(t, errs.Is(err, errs.KindMalformed))
}

func TestForeignMasterKeyDeleteIsSilentNoop(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()
	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	alice := registerUser(t, svc, "alice")
	mallory := registerUser(t, svc, "mallory")

	view, err := svc.AddMasterKey(ctx, alice, models.MasterKeyFile, "backup", "https://backup.example", "raw")
	assert.NoError(t, err)

	// Deleting someone else's key reports success without deleting it, and
	// without revealing that the key exists.
	assert.NoError(t, svc.DeleteMasterKey(ctx, mallory, view.Id))
	assert.NoError(t, svc.DeleteMasterKey(ctx, mallory, "no-such-id"))

	got, err := svc.GetMasterKey(ctx, alice, view.Id)
	assert.NoError(t, err)
	assert.Equal(t, view.Id, got.Id)

	// Reads and updates are owner-only; a foreign key looks absent.
	_, err = svc.GetMasterKey(ctx, mallory, view.Id)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	_, err = svc.UpdateMasterKey(ctx, mallory, view.Id, "stolen")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestApproveWithMasterKeyMintsRemoteSession(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()

	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRemote.On("MintSession", mock.Anything, "https://backup.example", "raw-credential", mock.Anything).Return("minted-session", nil)

	user := registerUser(t, svc, "alice")
	view, err := svc.AddMasterKey(ctx, user, models.MasterKeyFile, "backup", "https://backup.example", "raw-credential")
	assert.NoError(t, err)

	hs := startHandshake(t, svc, "store")
	target, err := svc.ApproveHandshake(ctx, hs, user, service.ApproveRequest{Store: view.Id})
	assert.NoError(t, err)

	bundle, err := svc.ExchangeCode(ctx, service.ExchangeRequest{
		App:      "notes",
		Redirect: "https://notes.example/cb",
		Scopes:   "store",
		Code:     codeFromRedirect(t, target),
		Secret:   "app-secret",
	})
	assert.NoError(t, err)

	entry := bundle["store"]
	assert.NotNil(t, entry)
	assert.Equal(t, models.DescriptorKey, entry.Type)
	assert.Equal(t, "https://backup.example", entry.URL)
	assert.Equal(t, "minted-session", entry.Session)
}

func TestApproveRejectsWrongTypeOrForeignKey(t *testing.T) {
	svc, _, _, _, mockRemote := setupService(t)
	ctx := context.Background()
	mockRemote.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	alice := registerUser(t, svc, "alice")
	mallory := registerUser(t, svc, "mallory")

	fileKey, err := svc.AddMasterKey(ctx, alice, models.MasterKeyFile, "backup", "https://backup.example", "raw")
	assert.NoError(t, err)

	// A file key cannot fill the db slot.
	hs := startHandshake(t, svc, "db")
	_, err = svc.ApproveHandshake(ctx, hs, alice, service.ApproveRequest{Db: fileKey.Id})
	assert.True(t, errs.Is(err, errs.KindNotFound))

	// Someone else's key cannot fill any slot.
	hs = startHandshake(t, svc, "store")
	_, err = svc.ApproveHandshake(ctx, hs, mallory, service.ApproveRequest{Store: fileKey.Id})
	assert.True(t, errs.Is(err, errs.KindNotFound))
}
