package devicetoken

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	"github.com/alaalsalam/hisabi-backend/common/mpostgres"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	connectionDB := dbresolver.New(dbresolver.WithPrimaryDBs(db), dbresolver.WithReplicaDBs(db))
	conn := &mpostgres.PostgresConnection{ConnectionDB: &connectionDB, Connected: true}

	return NewRepository(conn), mock, func() { db.Close() }
}

func TestRepository_ResolveReturnsUserIDForLiveUnrevokedToken(t *testing.T) {
	repo, mock, closeDB := newTestRepository(t)
	defer closeDB()

	mock.ExpectQuery("SELECT user_id, device_id, revoked FROM device_token").
		WithArgs("tok1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "device_id", "revoked"}).AddRow("user1", "dev1", false))

	userID, err := repo.Resolve(context.Background(), "tok1", "dev1")
	require.NoError(t, err)
	assert.Equal(t, "user1", userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ResolveUnknownTokenIsUnauthorized(t *testing.T) {
	repo, mock, closeDB := newTestRepository(t)
	defer closeDB()

	mock.ExpectQuery("SELECT user_id, device_id, revoked FROM device_token").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "device_id", "revoked"}))

	_, err := repo.Resolve(context.Background(), "ghost", "dev1")
	assert.ErrorIs(t, err, cn.ErrUnauthorized)
}

func TestRepository_ResolveRevokedTokenIsUnauthorized(t *testing.T) {
	repo, mock, closeDB := newTestRepository(t)
	defer closeDB()

	mock.ExpectQuery("SELECT user_id, device_id, revoked FROM device_token").
		WithArgs("tok1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "device_id", "revoked"}).AddRow("user1", "dev1", true))

	_, err := repo.Resolve(context.Background(), "tok1", "dev1")
	assert.ErrorIs(t, err, cn.ErrUnauthorized)
}

func TestRepository_ResolveWrongDeviceIsUnauthorized(t *testing.T) {
	repo, mock, closeDB := newTestRepository(t)
	defer closeDB()

	mock.ExpectQuery("SELECT user_id, device_id, revoked FROM device_token").
		WithArgs("tok1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "device_id", "revoked"}).AddRow("user1", "dev1", false))

	_, err := repo.Resolve(context.Background(), "tok1", "dev-other")
	assert.ErrorIs(t, err, cn.ErrUnauthorized)
}

func TestRepository_IssueInsertsRow(t *testing.T) {
	repo, mock, closeDB := newTestRepository(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO device_token").
		WithArgs("tok1", "user1", "dev1", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Issue(context.Background(), "tok1", "user1", "dev1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
