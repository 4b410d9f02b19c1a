// Package conflict содержит правило last-write-wins, общее для клиента и
// сервера: обе стороны должны прийти к одному решению по одним и тем же
// входным данным.
package conflict

// Side - сторона, чья версия остается.
type Side int

const (
	Local Side = iota
	Remote
)

func (s Side) String() string {
	if s == Local {
		return "local"
	}
	return "remote"
}

// Type - характер конфликта, только для наблюдаемости.
type Type string

const (
	EditEdit     Type = "edit-edit"
	DeleteEdit   Type = "delete-edit"
	EditDelete   Type = "edit-delete"
	DeleteDelete Type = "delete-delete"
)

// Version - то, что правилу нужно знать о версии записи. ModifiedAt - отметка
// того, кто эту версию записал: clientModifiedAt для локальной правки,
// serverModifiedAt для серверной.
type Version struct {
	ID         string
	ModifiedAt int64
	Deleted    bool
}

// Classify определяет тип конфликта; первым идет локальное действие.
func Classify(local, remote Version) Type {
	switch {
	case local.Deleted && remote.Deleted:
		return DeleteDelete
	case local.Deleted:
		return DeleteEdit
	case remote.Deleted:
		return EditDelete
	default:
		return EditEdit
	}
}

// Resolve выбирает победителя:
//   - побеждает более поздняя отметка;
//   - при равенстве правка побеждает удаление;
//   - затем побеждает лексикографически больший id;
//   - одна и та же запись при полном равенстве остается серверной.
func Resolve(local, remote Version) Side {
	if local.ModifiedAt > remote.ModifiedAt {
		return Local
	}
	if remote.ModifiedAt > local.ModifiedAt {
		return Remote
	}

	if local.Deleted != remote.Deleted {
		if remote.Deleted {
			return Local
		}
		return Remote
	}

	if local.ID > remote.ID {
		return Local
	}
	return Remote
}
