package preview

// pageTemplate is formatted with the title, the root tag twice and the
// client script.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
#idom-error { display: none; position: fixed; inset: auto 0 0 0; padding: 1em;
  background: #300; color: #fcc; font-family: monospace; white-space: pre-wrap; }
</style>
</head>
<body>
<%s id="idom-root"></%s>
<div id="idom-error"></div>
%s
</body>
</html>
`

// clientScript applies binary frames to the mount element. It mirrors
// protocol.DecodeFrame.
const clientScript = `<script>
(function() {
    'use strict';

    var mount = document.getElementById('idom-root');
    var overlay = document.getElementById('idom-error');
    var nodes = {};
    var textDecoder = new TextDecoder();

    function reset() {
        while (mount.firstChild) {
            mount.removeChild(mount.firstChild);
        }
        nodes = {1: mount};
    }

    function Reader(buf) {
        this.bytes = new Uint8Array(buf);
        this.view = new DataView(buf);
        this.off = 0;
    }
    Reader.prototype.byte = function() {
        return this.bytes[this.off++];
    };
    Reader.prototype.uvarint = function() {
        var x = 0, scale = 1, b;
        do {
            b = this.byte();
            x += (b & 0x7f) * scale;
            scale *= 128;
        } while (b >= 0x80);
        return x;
    };
    Reader.prototype.string = function() {
        var n = this.uvarint();
        var s = textDecoder.decode(this.bytes.subarray(this.off, this.off + n));
        this.off += n;
        return s;
    };
    Reader.prototype.value = function() {
        switch (this.byte()) {
        case 1: return {kind: 'string', v: this.string()};
        case 2: return {kind: 'bool', v: this.byte() === 1};
        case 3:
            var f = this.view.getFloat64(this.off, false);
            this.off += 8;
            return {kind: 'number', v: f};
        case 4: return {kind: 'ref', v: this.string()};
        default: return {kind: 'absent'};
        }
    };

    function setAttr(el, name, val) {
        if (val.kind === 'ref' || val.kind === 'absent' || (val.kind === 'bool' && !val.v)) {
            el.removeAttribute(name);
        } else if (val.kind === 'bool') {
            el.setAttribute(name, '');
        } else {
            el.setAttribute(name, String(val.v));
        }
    }

    function apply(buf) {
        var r = new Reader(buf);
        r.uvarint(); // seq
        var count = r.uvarint();
        for (var i = 0; i < count; i++) {
            var op = r.byte();
            var id = r.uvarint();
            switch (op) {
            case 1:
                var tag = r.string();
                r.string(); // key
                nodes[id] = document.createElement(tag);
                break;
            case 2:
                nodes[id] = document.createTextNode(r.string());
                break;
            case 3:
                var name = r.string();
                setAttr(nodes[id], name, r.value());
                break;
            case 4:
                nodes[id].removeAttribute(r.string());
                break;
            case 5:
                var parent = nodes[r.uvarint()];
                var ref = r.uvarint();
                parent.insertBefore(nodes[id], ref ? nodes[ref] : null);
                break;
            case 6:
                nodes[r.uvarint()].removeChild(nodes[id]);
                break;
            case 7:
                nodes[id].data = r.string();
                break;
            }
        }
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/ws');
        ws.binaryType = 'arraybuffer';

        ws.onmessage = function(e) {
            if (typeof e.data !== 'string') {
                apply(e.data);
                return;
            }
            var msg = JSON.parse(e.data);
            switch (msg.type) {
            case 'reset':
                reset();
                break;
            case 'error':
                overlay.textContent = msg.error;
                overlay.style.display = 'block';
                break;
            case 'clear':
                overlay.style.display = 'none';
                break;
            }
        };

        ws.onclose = function() {
            setTimeout(connect, 1000);
        };
    }

    reset();
    connect();
})();
</script>`
