package service

import (
	"sync"
)

// WalletLocks 进程内按钱包串行化原语
// 积分结算与兑换协议共用同一组锁，保证同一钱包的快照读改写不交错
// 数据库行锁保证跨实例一致性，这里额外把mint等待期间的互斥也覆盖住
type WalletLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewWalletLocks() *WalletLocks {
	return &WalletLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock 独占指定钱包，返回解锁函数
func (l *WalletLocks) Lock(wallet string) func() {
	l.mu.Lock()
	m, ok := l.locks[wallet]
	if !ok {
		m = &sync.Mutex{}
		l.locks[wallet] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
