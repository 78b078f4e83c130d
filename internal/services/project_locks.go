package services

import "sync"

// ProjectLocks - мьютекс на каждый projectID внутри процесса.
// Сериализует accept/close одного проекта до похода в БД; сама БД
// дополнительно защищена FOR UPDATE и CAS по version.
type ProjectLocks struct {
	mu    sync.Mutex
	locks map[string]*projectLock
}

type projectLock struct {
	mu   sync.Mutex
	refs int
}

func NewProjectLocks() *ProjectLocks {
	return &ProjectLocks{locks: make(map[string]*projectLock)}
}

// Lock блокирует проект и возвращает функцию разблокировки
func (l *ProjectLocks) Lock(projectID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[projectID]
	if !ok {
		lock = &projectLock{}
		l.locks[projectID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, projectID)
		}
		l.mu.Unlock()
	}
}
