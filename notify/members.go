package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"waypoint/persistence"

	"github.com/fundwit/go-commons/types"
)

// Member is a person holding a role on one entity of a workflow, such as the
// controller of a project or the translator of a report. A person holding two
// roles on the same entity is two members.
type Member struct {
	Workflow   string    `json:"workflow" gorm:"primary_key" sql:"type:VARCHAR(64)"`
	EntityID   types.ID  `json:"entityId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	MemberID   types.ID  `json:"memberId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Role       string    `json:"role" gorm:"primary_key" sql:"type:VARCHAR(64)"`
	MemberName string    `json:"memberName"`
	CreateTime time.Time `json:"createTime" sql:"type:DATETIME(3) NOT NULL"`
}

func (m *Member) TableName() string {
	return "entity_members"
}

// Directory resolves roles on an entity to the members holding them.
type Directory interface {
	Members(ctx context.Context, workflow string, entityID types.ID, roles []string) ([]Member, error)
}

type GormDirectory struct {
	DS *persistence.DataSourceManager
}

func NewGormDirectory(ds *persistence.DataSourceManager) *GormDirectory {
	return &GormDirectory{DS: ds}
}

func (d *GormDirectory) Migrate() error {
	return d.DS.GormDB(context.Background()).AutoMigrate(&Member{}).Error
}

// Save adds the role of the member or updates the stored one.
func (d *GormDirectory) Save(ctx context.Context, m *Member) error {
	if m.CreateTime.IsZero() {
		m.CreateTime = time.Now()
	}
	return d.DS.GormDB(ctx).Save(m).Error
}

func (d *GormDirectory) Members(ctx context.Context, workflow string, entityID types.ID, roles []string) ([]Member, error) {
	members := []Member{}
	if len(roles) == 0 {
		return members, nil
	}
	err := d.DS.GormDB(ctx).Where("workflow = ? AND entity_id = ? AND role IN (?)", workflow, entityID, roles).
		Order("member_id ASC, role ASC").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

type MemoryDirectory struct {
	mu      sync.RWMutex
	members []Member
}

func NewMemoryDirectory(members ...Member) *MemoryDirectory {
	return &MemoryDirectory{members: append([]Member(nil), members...)}
}

func (d *MemoryDirectory) Save(ctx context.Context, m *Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.members {
		existing := &d.members[i]
		if existing.Workflow == m.Workflow && existing.EntityID == m.EntityID && existing.MemberID == m.MemberID &&
			existing.Role == m.Role {
			*existing = *m
			return nil
		}
	}
	d.members = append(d.members, *m)
	return nil
}

func (d *MemoryDirectory) Members(ctx context.Context, workflow string, entityID types.ID, roles []string) ([]Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	wanted := map[string]bool{}
	for _, r := range roles {
		wanted[r] = true
	}
	members := []Member{}
	for _, m := range d.members {
		if m.Workflow == workflow && m.EntityID == entityID && wanted[m.Role] {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].MemberID != members[j].MemberID {
			return members[i].MemberID < members[j].MemberID
		}
		return members[i].Role < members[j].Role
	})
	return members, nil
}
