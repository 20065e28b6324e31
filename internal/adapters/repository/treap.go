package repository

// Treap ordered by accuracy DESC, then player ASC. In-order traversal yields
// the leaderboard from best to worst; subtree sizes give positional ranks.

type node struct {
	player   string
	accuracy float64
	prio     uint64
	left     *node
	right    *node
	size     int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// before reports whether (aAcc, aPlayer) ranks ahead of (bAcc, bPlayer).
func before(aAcc float64, aPlayer string, bAcc float64, bPlayer string) bool {
	if aAcc != bAcc {
		return aAcc > bAcc
	}
	return aPlayer < bPlayer
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, player string, accuracy float64, prio uint64) *node {
	if n == nil {
		return &node{player: player, accuracy: accuracy, prio: prio, size: 1}
	}
	if before(accuracy, player, n.accuracy, n.player) {
		n.left = insert(n.left, player, accuracy, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, player, accuracy, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, player string, accuracy float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.player == player && n.accuracy == accuracy:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, player, accuracy)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, player, accuracy)
		}
	case before(accuracy, player, n.accuracy, n.player):
		n.left = remove(n.left, player, accuracy)
	default:
		n.right = remove(n.right, player, accuracy)
	}
	fix(n)
	return n
}

// position returns the zero-based in-order index of (player, accuracy).
func position(n *node, player string, accuracy float64) int {
	pos := 0
	for n != nil {
		switch {
		case n.player == player && n.accuracy == accuracy:
			return pos + nsize(n.left)
		case before(accuracy, player, n.accuracy, n.player):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// collect appends up to limit players in rank order.
func collect(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.player)
	}
	collect(n.right, limit, out)
}
