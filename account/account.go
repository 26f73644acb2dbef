package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"waypoint/bizerror"
	"waypoint/idgen"
	"waypoint/persistence"
	"waypoint/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// User is a login account. Roles are the comma separated names policies are
// granted to.
type User struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name     string   `json:"name" gorm:"unique_index"`
	Nickname string   `json:"nickname"`
	Secret   string   `json:"-"`
	Roles    string   `json:"roles"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) Identity() session.Identity {
	return session.Identity{ID: u.ID, Name: u.Name, Nickname: u.Nickname}
}

func (u *User) Perms() []string {
	perms := []string{}
	for _, r := range strings.Split(u.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			perms = append(perms, r)
		}
	}
	return perms
}

func HashSha256(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type Accounts struct {
	DS *persistence.DataSourceManager

	idWorker *sonyflake.Sonyflake
}

func NewAccounts(ds *persistence.DataSourceManager) *Accounts {
	return &Accounts{DS: ds, idWorker: idgen.NewWorker()}
}

func (a *Accounts) Migrate() error {
	return a.DS.GormDB(context.Background()).AutoMigrate(&User{}).Error
}

func (a *Accounts) Create(ctx context.Context, name, nickname, password string, roles []string) (*User, error) {
	user := &User{ID: idgen.NextID(a.idWorker), Name: name, Nickname: nickname, Secret: HashSha256(password),
		Roles: strings.Join(roles, ",")}
	if err := a.DS.GormDB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user matching name and password; any mismatch is
// reported as bizerror.ErrUnauthenticated.
func (a *Accounts) Authenticate(ctx context.Context, name, password string) (*User, error) {
	user := &User{}
	err := a.DS.GormDB(ctx).Where(&User{Name: name, Secret: HashSha256(password)}).First(user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, bizerror.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
